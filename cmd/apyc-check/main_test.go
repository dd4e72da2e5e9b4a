package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"apyc/checker-go/pkg/driver"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func TestVersionAndHelp(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != 0 || strings.TrimSpace(out) != cliToolVersion {
		t.Fatalf("version: code=%d out=%q", code, out)
	}
	code, out, _ = runCLI(t, "help")
	if code != 0 || !strings.Contains(out, "fixtures [--workers N]") {
		t.Fatalf("help: code=%d out=%q", code, out)
	}
	code, _, errOut := runCLI(t, "explode")
	if code != 2 || !strings.Contains(errOut, `unknown command "explode"`) {
		t.Fatalf("unknown command: code=%d stderr=%q", code, errOut)
	}
}

func TestRejectsBadLogFlags(t *testing.T) {
	if code, _, errOut := runCLI(t, "--log-level", "loud", "version"); code != 2 || !strings.Contains(errOut, "unknown level") {
		t.Fatalf("bad level: code=%d stderr=%q", code, errOut)
	}
	if code, _, errOut := runCLI(t, "--log-format", "xml", "version"); code != 2 || !strings.Contains(errOut, "unknown format") {
		t.Fatalf("bad format: code=%d stderr=%q", code, errOut)
	}
}

func TestCheckReportsDiagnostics(t *testing.T) {
	config := filepath.Join("..", "..", "testdata", driver.ConfigFileName)
	module := filepath.Join("..", "..", "testdata", "fixtures", "string_plus_int", driver.DefaultEntry)
	code, out, errOut := runCLI(t, "--config", config, "check", module)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d (stderr=%q)", code, errOut)
	}
	want := module + ":1:5: error: typechecker: unsupported operand types for +: str and int"
	if strings.TrimSpace(out) != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestCheckAcceptsValidModuleAndDumpsScopes(t *testing.T) {
	config := filepath.Join("..", "..", "testdata", driver.ConfigFileName)
	module := filepath.Join("..", "..", "testdata", "fixtures", "closure", driver.DefaultEntry)
	code, out, errOut := runCLI(t, "--config", config, "check", "--scopes", module)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stdout=%q stderr=%q)", code, out, errOut)
	}
	if !strings.Contains(out, "captured from") {
		t.Fatalf("scope dump missing capture alias:\n%s", out)
	}
}

func TestCheckDebugLoggingGoesToStderr(t *testing.T) {
	config := filepath.Join("..", "..", "testdata", driver.ConfigFileName)
	module := filepath.Join("..", "..", "testdata", "fixtures", "typing_def", driver.DefaultEntry)
	code, out, errOut := runCLI(t, "--config", config, "--log-level", "debug", "--log-format", "json", "check", module)
	if code != 0 || out != "" {
		t.Fatalf("code=%d stdout=%q", code, out)
	}
	if !strings.Contains(errOut, `"phase":"resolve"`) {
		t.Fatalf("expected json phase logs on stderr, got %q", errOut)
	}
}

func TestFixturesCommand(t *testing.T) {
	config := filepath.Join("..", "..", "testdata", driver.ConfigFileName)
	code, out, errOut := runCLI(t, "--config", config, "fixtures", "--workers", "3")
	if code != 0 {
		t.Fatalf("expected all fixtures to pass, got %d\n%s\n%s", code, out, errOut)
	}
	if !strings.Contains(out, "10 fixtures, 0 failed") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestFixturesCommandReportsFailures(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "bad")
	writeFile(t, filepath.Join(dir, driver.ManifestFileName), `description: wrongly expects success`)
	writeFile(t, filepath.Join(dir, driver.DefaultEntry), `{"type": "Module", "body": [
	  {"type": "ReturnStatement", "argument": {"type": "IntegerLiteral", "value": 1}}
	]}`)
	writeFile(t, filepath.Join(root, driver.ConfigFileName), `name: temp`)
	code, out, _ := runCLI(t, "--config", filepath.Join(root, driver.ConfigFileName), "fixtures", root)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d\n%s", code, out)
	}
	for _, fragment := range []string{"FAIL " + dir, "expected pass", "return outside of a function", "1 fixtures, 1 failed"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("output missing %q:\n%s", fragment, out)
		}
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, driver.ConfigFileName), "name: test")
	child := filepath.Join(root, "src", "app")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := findConfig(child)
	if err != nil {
		t.Fatalf("findConfig returned error: %v", err)
	}
	if want := filepath.Join(root, driver.ConfigFileName); found != want {
		t.Fatalf("findConfig = %q, want %q", found, want)
	}
}

func TestResolveApycHomeEnv(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cache")
	t.Setenv("APYC_HOME", target)
	got, err := resolveApycHome()
	if err != nil {
		t.Fatalf("resolveApycHome error: %v", err)
	}
	if got != target {
		t.Fatalf("resolveApycHome = %q, want %q", got, target)
	}
}

func TestResolveApycHomeDefault(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("APYC_HOME", "")
	t.Setenv("HOME", tmp)
	got, err := resolveApycHome()
	if err != nil {
		t.Fatalf("resolveApycHome error: %v", err)
	}
	if want := filepath.Join(tmp, ".apyc"); got != want {
		t.Fatalf("resolveApycHome = %q, want %q", got, want)
	}
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	}); err != nil {
		t.Fatalf("stage files: %v", err)
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "apyc",
			Email: "apyc@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func TestFetchThenRunSuite(t *testing.T) {
	root := t.TempDir()
	t.Setenv("APYC_HOME", filepath.Join(root, "home"))

	repo := filepath.Join(root, "suite-repo")
	writeFile(t, filepath.Join(repo, "cases", "native", driver.ManifestFileName), `
description: remote native fixture
expect:
  outcome: pass
`)
	writeFile(t, filepath.Join(repo, "cases", "native", driver.DefaultEntry), `{"type": "Module", "body": [
	  {"type": "FunctionDefinition", "id": "hello", "params": [], "native": "hello_impl"},
	  {"type": "PrintStatement", "arguments": [{"type": "FunctionCall", "callee": {"type": "Identifier", "name": "hello"}, "arguments": []}]}
	]}`)
	rev := initGitRepo(t, repo)

	project := filepath.Join(root, "project")
	configPath := filepath.Join(project, driver.ConfigFileName)
	writeFile(t, configPath, `
name: project
suites:
  upstream:
    git: `+repo+`
    branch: master
    path: cases
`)

	code, out, errOut := runCLI(t, "--config", configPath, "fetch")
	if code != 0 {
		t.Fatalf("fetch failed: %d\n%s\n%s", code, out, errOut)
	}
	lock, err := driver.LoadLockfile(filepath.Join(project, driver.LockfileName))
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	entry, ok := lock.Find("upstream")
	if !ok || entry.Commit != rev || entry.Version != "master@"+rev {
		t.Fatalf("lock entry = %+v, want commit %s", entry, rev)
	}
	if lock.Root != "project" || lock.Tool != cliToolVersion {
		t.Fatalf("lock metadata = %+v", lock)
	}

	code, out, errOut = runCLI(t, "--config", configPath, "fixtures")
	if code != 0 {
		t.Fatalf("fixtures failed: %d\n%s\n%s", code, out, errOut)
	}
	if !strings.Contains(out, "1 fixtures, 0 failed") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestFixturesRequiresLockForSuites(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, driver.ConfigFileName)
	writeFile(t, configPath, `
name: project
suites:
  upstream:
    git: https://example.com/suite.git
    tag: v1
`)
	code, _, errOut := runCLI(t, "--config", configPath, "fixtures")
	if code != 1 || !strings.Contains(errOut, "apyc.lock missing") {
		t.Fatalf("code=%d stderr=%q", code, errOut)
	}
}
