package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"apyc/checker-go/pkg/ast"
	"apyc/checker-go/pkg/logger"
	"apyc/checker-go/pkg/typechecker"
)

// FixtureResult is the outcome of replaying one fixture directory.
type FixtureResult struct {
	Dir      string
	Manifest *Manifest
	Result   *typechecker.Result
	// Failures lists expectation mismatches; Err is set when the fixture
	// could not be loaded or checked at all.
	Failures []string
	Err      error
}

// Passed reports whether the fixture met its expectations.
func (r FixtureResult) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Runner checks modules and fixtures with a shared option set. Each unit
// gets its own Checker, so a Runner may be used from several goroutines.
type Runner struct {
	Options []typechecker.Option
	Workers int
}

// NewRunner builds a runner from project configuration. A nil config uses
// checker defaults.
func NewRunner(cfg *Config) (*Runner, error) {
	opts, err := cfg.CheckerOptions()
	if err != nil {
		return nil, err
	}
	return &Runner{Options: opts}, nil
}

// CheckModule typechecks an already decoded module.
func (r *Runner) CheckModule(module *ast.Module) (*typechecker.Result, error) {
	checker := typechecker.New(r.Options...)
	return checker.CheckModule(module)
}

// CheckFile loads and typechecks a JSON AST module.
func (r *Runner) CheckFile(path string) (*typechecker.Result, error) {
	module, err := LoadModule(path)
	if err != nil {
		return nil, err
	}
	result, err := r.CheckModule(module)
	if err != nil {
		return nil, err
	}
	logger.Debug("checked file", "path", path, "unit", module.Name)
	return result, nil
}

// RunFixture replays a single fixture directory.
func (r *Runner) RunFixture(dir string) FixtureResult {
	out := FixtureResult{Dir: dir}
	manifest, err := LoadManifest(filepath.Join(dir, ManifestFileName))
	if err != nil {
		out.Err = err
		return out
	}
	out.Manifest = manifest
	result, err := r.CheckFile(manifest.EntryPath())
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = result
	out.Failures = matchExpectation(manifest.Expect, result)
	return out
}

// RunSuite replays fixtures concurrently with at most Workers goroutines.
// Results come back in input order. Fixtures not started before ctx is
// cancelled report ctx.Err().
func (r *Runner) RunSuite(ctx context.Context, dirs []string) []FixtureResult {
	results := make([]FixtureResult, len(dirs))
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, dir := range dirs {
		select {
		case <-ctx.Done():
			results[i] = FixtureResult{Dir: dir, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, dir string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[i] = FixtureResult{Dir: dir, Err: err}
				return
			}
			results[i] = r.RunFixture(dir)
		}(i, dir)
	}
	wg.Wait()
	return results
}

// matchExpectation compares a result with the manifest. Expected diagnostics
// must appear in the reported order; extra diagnostics are allowed.
func matchExpectation(expect Expectation, result *typechecker.Result) []string {
	var failures []string
	failed := result.Failed()
	switch expect.Outcome {
	case OutcomePass:
		if failed {
			failures = append(failures, fmt.Sprintf("expected pass, got %d diagnostic(s)", len(result.Diagnostics)))
		}
	case OutcomeFail:
		if !failed {
			failures = append(failures, "expected failure, but the module was accepted")
		}
	}
	next := 0
	for _, want := range expect.Diagnostics {
		found := false
		for next < len(result.Diagnostics) {
			diag := result.Diagnostics[next]
			next++
			if want.Matches(diag) {
				found = true
				break
			}
		}
		if !found {
			failures = append(failures, fmt.Sprintf("missing diagnostic %s", want))
			break
		}
	}
	return failures
}
