package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

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

func writeSuiteRepo(t *testing.T, repo string) {
	t.Helper()
	fixture := filepath.Join(repo, "tests", "incr")
	writeFile(t, filepath.Join(fixture, ManifestFileName), `description: remote incr`)
	writeFile(t, filepath.Join(fixture, DefaultEntry), `{"type": "Module", "body": [
	  {"type": "FunctionDefinition", "id": "incr", "params": [{"type": "Parameter", "name": "n", "typeAnnotation": "int"}],
	   "body": [{"type": "ReturnStatement", "argument": {"type": "BinaryExpression", "operator": "+",
	     "left": {"type": "Identifier", "name": "n"}, "right": {"type": "IntegerLiteral", "value": 1}}}]}
	]}`)
}

func TestFetcherRevision(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	writeSuiteRepo(t, repo)
	rev := initGitRepo(t, repo)

	fetcher := NewFetcher(filepath.Join(root, "cache"))
	spec := &SuiteSpec{Name: "remote-suite", Git: repo, Rev: rev, Path: "tests"}
	fetched, err := fetcher.Fetch(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fetched.Lock.Commit != rev || fetched.Lock.Version != rev {
		t.Fatalf("lock = %+v, want commit %s", fetched.Lock, rev)
	}
	if want := fmt.Sprintf("git+%s@%s", repo, rev); fetched.Lock.Source != want {
		t.Fatalf("source = %q, want %q", fetched.Lock.Source, want)
	}
	if fetched.Lock.Name != "remote_suite" || fetched.Lock.Checksum == "" {
		t.Fatalf("unexpected lock entry %+v", fetched.Lock)
	}
	wantCheckout := filepath.Join(root, "cache", "suites", "remote-suite", rev)
	if fetched.Checkout != wantCheckout {
		t.Fatalf("checkout = %s, want %s", fetched.Checkout, wantCheckout)
	}

	dirs, err := DiscoverFixtures(fetched.Root)
	if err != nil {
		t.Fatalf("DiscoverFixtures: %v", err)
	}
	results := (&Runner{}).RunSuite(context.Background(), dirs)
	if len(results) != 1 || !results[0].Passed() {
		t.Fatalf("remote fixture did not pass: %+v", results)
	}

	again, err := fetcher.Fetch(context.Background(), spec, fetched.Lock)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if again.Lock.Checksum != fetched.Lock.Checksum {
		t.Fatalf("checksum changed between fetches: %s vs %s", again.Lock.Checksum, fetched.Lock.Checksum)
	}
}

func TestFetcherBranchPinsCommit(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	writeSuiteRepo(t, repo)
	rev := initGitRepo(t, repo)

	fetcher := NewFetcher(filepath.Join(root, "cache"))
	spec := &SuiteSpec{Name: "suite", Git: repo, Branch: "master"}
	fetched, err := fetcher.Fetch(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if want := "master@" + rev; fetched.Lock.Version != want {
		t.Fatalf("version = %q, want %q", fetched.Lock.Version, want)
	}
	if _, err := os.Stat(filepath.Join(fetched.Checkout, "tests", "incr", ManifestFileName)); err != nil {
		t.Fatalf("expected checked out fixture: %v", err)
	}

	// A lock entry for the same source pins later fetches to the recorded commit.
	pinned, err := fetcher.Fetch(context.Background(), spec, fetched.Lock)
	if err != nil {
		t.Fatalf("pinned Fetch: %v", err)
	}
	if pinned.Lock.Commit != rev || pinned.Lock.Version != fetched.Lock.Version {
		t.Fatalf("pinned lock = %+v", pinned.Lock)
	}
}

func TestFetcherErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := NewFetcher("").Fetch(context.Background(), &SuiteSpec{Name: "x", Git: root, Rev: "abc"}, nil); err == nil {
		t.Fatalf("expected error without cache dir")
	}
	fetcher := NewFetcher(filepath.Join(root, "cache"))
	if _, err := fetcher.Fetch(context.Background(), &SuiteSpec{Name: "x", Rev: "abc"}, nil); err == nil {
		t.Fatalf("expected error without git url")
	}
	_, err := fetcher.Fetch(context.Background(), &SuiteSpec{Name: "x", Git: filepath.Join(root, "missing"), Branch: "main"}, nil)
	if err == nil || !strings.Contains(err.Error(), "git clone") {
		t.Fatalf("expected clone error, got %v", err)
	}
}

func TestGitRevisionFromSpec(t *testing.T) {
	cases := []struct {
		spec       SuiteSpec
		revision   string
		descriptor string
	}{
		{SuiteSpec{Rev: "abc"}, "abc", "abc"},
		{SuiteSpec{Tag: "v1"}, "refs/tags/v1", "v1"},
		{SuiteSpec{Branch: "main"}, "refs/heads/main", "main"},
	}
	for _, tc := range cases {
		rev, desc, err := gitRevisionFromSpec(&tc.spec)
		if err != nil {
			t.Fatalf("%+v: %v", tc.spec, err)
		}
		if string(rev) != tc.revision || desc != tc.descriptor {
			t.Fatalf("%+v: got %s/%s", tc.spec, rev, desc)
		}
	}
	if _, _, err := gitRevisionFromSpec(&SuiteSpec{}); err == nil {
		t.Fatalf("expected error for unpinned suite")
	}
	if got := sanitizePathSegment("master@1f2e"); got != "master_1f2e" {
		t.Fatalf("sanitizePathSegment = %q", got)
	}
}
