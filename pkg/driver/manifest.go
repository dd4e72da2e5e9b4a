package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"apyc/checker-go/pkg/typechecker"
)

// ManifestFileName marks a fixture directory.
const ManifestFileName = "manifest.yml"

// DefaultEntry is the module document used when a manifest omits entry.
const DefaultEntry = "module.json"

// Outcome is the expected verdict for a fixture.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// IsValid reports whether the outcome is recognised.
func (o Outcome) IsValid() bool {
	return o == OutcomePass || o == OutcomeFail
}

// Manifest describes one fixture directory.
type Manifest struct {
	Path        string
	Dir         string
	Description string
	Entry       string
	Expect      Expectation
}

// Expectation lists what the checker must report for a fixture.
type Expectation struct {
	Outcome     Outcome
	Diagnostics []ExpectedDiagnostic
}

// ExpectedDiagnostic matches a diagnostic by kind and message substring.
type ExpectedDiagnostic struct {
	Kind     typechecker.DiagnosticKind
	Fragment string
}

func (e ExpectedDiagnostic) String() string {
	if e.Fragment == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Fragment)
}

// Matches reports whether a produced diagnostic satisfies the expectation.
func (e ExpectedDiagnostic) Matches(diag typechecker.Diagnostic) bool {
	return diag.Kind == e.Kind && strings.Contains(diag.Message, e.Fragment)
}

// EntryPath returns the absolute path of the fixture's module document.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Entry)
}

// Name is the fixture directory's base name.
func (m *Manifest) Name() string {
	return filepath.Base(m.Dir)
}

// LoadManifest parses a fixture manifest.yml.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}
	return raw.toManifest(absPath)
}

type manifestFile struct {
	Description string `yaml:"description"`
	Entry       string `yaml:"entry"`
	Expect      struct {
		Outcome     string     `yaml:"outcome"`
		Diagnostics stringList `yaml:"diagnostics"`
	} `yaml:"expect"`
}

func (mf manifestFile) toManifest(path string) (*Manifest, error) {
	errs := ValidationError{Source: "manifest " + path}
	m := &Manifest{
		Path:        path,
		Dir:         filepath.Dir(path),
		Description: strings.TrimSpace(mf.Description),
		Entry:       strings.TrimSpace(mf.Entry),
	}
	if m.Entry == "" {
		m.Entry = DefaultEntry
	}
	if filepath.IsAbs(m.Entry) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q must be relative to the fixture", m.Entry))
	}

	outcome := Outcome(strings.ToLower(strings.TrimSpace(mf.Expect.Outcome)))
	if outcome == "" {
		outcome = OutcomePass
	}
	if !outcome.IsValid() {
		errs.Issues = append(errs.Issues, fmt.Sprintf("expect.outcome %q must be pass or fail", mf.Expect.Outcome))
	}
	m.Expect.Outcome = outcome

	for i, text := range mf.Expect.Diagnostics.Clone() {
		expected, err := parseExpectedDiagnostic(text)
		if err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("expect.diagnostics[%d]: %v", i, err))
			continue
		}
		m.Expect.Diagnostics = append(m.Expect.Diagnostics, expected)
	}
	if len(errs.Issues) > 0 {
		return nil, &errs
	}
	return m, nil
}

// parseExpectedDiagnostic reads "Kind" or "Kind: message fragment".
func parseExpectedDiagnostic(text string) (ExpectedDiagnostic, error) {
	kindText, fragment, _ := strings.Cut(text, ":")
	kind := typechecker.DiagnosticKind(strings.TrimSpace(kindText))
	if !kind.IsValid() {
		return ExpectedDiagnostic{}, fmt.Errorf("unknown diagnostic kind %q", kindText)
	}
	return ExpectedDiagnostic{Kind: kind, Fragment: strings.TrimSpace(fragment)}, nil
}
