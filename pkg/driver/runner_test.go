package driver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRepositoryFixtures(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "testdata", ConfigFileName))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	var dirs []string
	for _, root := range cfg.Fixtures {
		found, err := DiscoverFixtures(root)
		if err != nil {
			t.Fatalf("DiscoverFixtures: %v", err)
		}
		dirs = append(dirs, found...)
	}
	if len(dirs) == 0 {
		t.Fatalf("no fixtures discovered")
	}
	for _, res := range runner.RunSuite(context.Background(), dirs) {
		if !res.Passed() {
			t.Fatalf("fixture %s failed: err=%v failures=%v diagnostics=%v", res.Dir, res.Err, res.Failures, res.Result)
		}
	}
}

func TestRunSuitePreservesOrder(t *testing.T) {
	root := t.TempDir()
	names := []string{"a", "b", "c", "d", "e"}
	var dirs []string
	for _, name := range names {
		dir := filepath.Join(root, name)
		writeFile(t, filepath.Join(dir, ManifestFileName), `description: `+name)
		writeFile(t, filepath.Join(dir, DefaultEntry), `{"type": "Module", "body": [{"type": "PassStatement"}]}`)
		dirs = append(dirs, dir)
	}
	runner := &Runner{Workers: 2}
	results := runner.RunSuite(context.Background(), dirs)
	if len(results) != len(dirs) {
		t.Fatalf("got %d results, want %d", len(results), len(dirs))
	}
	for i, res := range results {
		if res.Dir != dirs[i] {
			t.Fatalf("results[%d].Dir = %s, want %s", i, res.Dir, dirs[i])
		}
		if !res.Passed() {
			t.Fatalf("fixture %s failed: %v %v", res.Dir, res.Err, res.Failures)
		}
		if res.Manifest.Description != names[i] {
			t.Fatalf("manifest mismatch for %s: %q", res.Dir, res.Manifest.Description)
		}
	}
}

func TestRunSuiteCancelled(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "only")
	writeFile(t, filepath.Join(dir, ManifestFileName), `description: never runs`)
	writeFile(t, filepath.Join(dir, DefaultEntry), `{"type": "Module", "body": []}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := (&Runner{}).RunSuite(ctx, []string{dir})
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected cancellation error, got %+v", results)
	}
}

func TestRunFixtureReportsMismatches(t *testing.T) {
	root := t.TempDir()
	module := `{"type": "Module", "body": [
	  {"type": "AssignmentStatement", "target": {"type": "Identifier", "name": "x"},
	   "value": {"type": "BinaryExpression", "operator": "+",
	     "left": {"type": "StringLiteral", "value": "a"},
	     "right": {"type": "IntegerLiteral", "value": 1}}}
	]}`

	passDir := filepath.Join(root, "claims_pass")
	writeFile(t, filepath.Join(passDir, ManifestFileName), `description: wrongly expects success`)
	writeFile(t, filepath.Join(passDir, DefaultEntry), module)

	missingDir := filepath.Join(root, "wrong_kind")
	writeFile(t, filepath.Join(missingDir, ManifestFileName), `
expect:
  outcome: fail
  diagnostics:
    - "UnresolvedName: x"
`)
	writeFile(t, filepath.Join(missingDir, DefaultEntry), module)

	runner := &Runner{}
	res := runner.RunFixture(passDir)
	if res.Passed() || len(res.Failures) != 1 || !strings.Contains(res.Failures[0], "expected pass") {
		t.Fatalf("expected outcome failure, got %+v", res.Failures)
	}
	res = runner.RunFixture(missingDir)
	if res.Passed() || len(res.Failures) != 1 || !strings.Contains(res.Failures[0], "missing diagnostic UnresolvedName: x") {
		t.Fatalf("expected missing diagnostic failure, got %+v", res.Failures)
	}
}

func TestRunFixtureLoadErrors(t *testing.T) {
	root := t.TempDir()
	res := (&Runner{}).RunFixture(root)
	if res.Err == nil {
		t.Fatalf("expected error for missing manifest")
	}

	dir := filepath.Join(root, "broken")
	writeFile(t, filepath.Join(dir, ManifestFileName), `entry: nope.json`)
	res = (&Runner{}).RunFixture(dir)
	if res.Err == nil || !strings.Contains(res.Err.Error(), "nope.json") {
		t.Fatalf("expected missing entry error, got %v", res.Err)
	}
}

func TestDiscoverFixturesSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", ManifestFileName), `description: b`)
	writeFile(t, filepath.Join(root, "a", "nested", ManifestFileName), `description: nested`)
	writeFile(t, filepath.Join(root, ".git", "x", ManifestFileName), `description: hidden`)
	dirs, err := DiscoverFixtures(root)
	if err != nil {
		t.Fatalf("DiscoverFixtures: %v", err)
	}
	want := []string{filepath.Join(root, "a", "nested"), filepath.Join(root, "b")}
	if len(dirs) != len(want) || dirs[0] != want[0] || dirs[1] != want[1] {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
}
