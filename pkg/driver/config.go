package driver

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"apyc/checker-go/pkg/ast"
	"apyc/checker-go/pkg/typechecker"
)

// ConfigFileName is the project configuration looked up by the CLI.
const ConfigFileName = "apyc.yml"

// Config represents the parsed contents of apyc.yml.
type Config struct {
	Path             string
	Name             string
	Fixtures         []string
	WarningsAsErrors bool

	// MaxIntLiteral is nil when the file leaves the default in place.
	MaxIntLiteral   *big.Int
	DisableIntLimit bool

	Builtins   []BuiltinSpec
	Suites     map[string]*SuiteSpec
	SuiteOrder []string
}

// BuiltinSpec declares an extra prelude function using annotation syntax,
// e.g. params ["list of int"] and returns "int".
type BuiltinSpec struct {
	Name    string
	Params  []string
	Returns string
}

// SuiteSpec describes a remote fixture suite fetched with git. Path is the
// fixture root inside the checkout.
type SuiteSpec struct {
	Name   string
	Git    string
	Rev    string
	Tag    string
	Branch string
	Path   string
}

// ValidationError aggregates configuration and manifest validation failures.
type ValidationError struct {
	Source string
	Issues []string
}

func (e *ValidationError) Error() string {
	source := e.Source
	if source == "" {
		source = "config"
	}
	if len(e.Issues) == 0 {
		return source + ": invalid configuration"
	}
	var b strings.Builder
	b.WriteString(source)
	b.WriteString(" validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// DefaultConfig is used when no apyc.yml is present.
func DefaultConfig() *Config {
	return &Config{
		Name:   "apyc",
		Suites: map[string]*SuiteSpec{},
	}
}

// LoadConfig parses apyc.yml from disk, returning a validated config.
// Relative fixture directories are resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: %s is empty", absPath)
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	cfg := raw.toConfig(absPath)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	errs := ValidationError{Source: "config"}
	if c.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for i, dir := range c.Fixtures {
		if dir == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("fixtures[%d] must be a non-empty path", i))
		}
	}
	if c.MaxIntLiteral != nil && c.MaxIntLiteral.Sign() <= 0 {
		errs.Issues = append(errs.Issues, "max_int_literal must be positive")
	}
	seen := make(map[string]struct{}, len(c.Builtins))
	for _, b := range c.Builtins {
		if _, dup := seen[b.Name]; dup {
			errs.Issues = append(errs.Issues, fmt.Sprintf("builtins.%s declared twice", b.Name))
		}
		seen[b.Name] = struct{}{}
		if _, err := b.Function(); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("builtins.%s: %v", b.Name, err))
		}
	}
	for _, name := range c.SuiteOrder {
		suite := c.Suites[name]
		if suite == nil {
			continue
		}
		for _, issue := range suite.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("suites.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (s *SuiteSpec) validate() []string {
	var errs []string
	if s.Git == "" {
		errs = append(errs, "git URL required")
	}
	pins := 0
	for _, v := range []string{s.Rev, s.Tag, s.Branch} {
		if v != "" {
			pins++
		}
	}
	switch {
	case pins == 0:
		errs = append(errs, "must specify rev, tag, or branch")
	case pins > 1:
		errs = append(errs, "rev, tag, and branch are mutually exclusive")
	}
	if filepath.IsAbs(s.Path) || strings.HasPrefix(filepath.Clean(s.Path), "..") {
		errs = append(errs, fmt.Sprintf("path %q must stay inside the checkout", s.Path))
	}
	return errs
}

// Function converts the spec into a typechecker builtin. Class names are not
// available at configuration time, so only primitive and container
// annotations are accepted.
func (b BuiltinSpec) Function() (typechecker.Builtin, error) {
	params := make([]typechecker.Type, 0, len(b.Params))
	for i, text := range b.Params {
		typ, err := annotationFromText(text)
		if err != nil {
			return typechecker.Builtin{}, fmt.Errorf("params[%d]: %w", i, err)
		}
		params = append(params, typ)
	}
	ret, err := annotationFromText(b.Returns)
	if err != nil {
		return typechecker.Builtin{}, fmt.Errorf("returns: %w", err)
	}
	return typechecker.Builtin{Name: b.Name, Params: params, Return: ret}, nil
}

func annotationFromText(text string) (typechecker.Type, error) {
	if strings.TrimSpace(text) == "" {
		return typechecker.Any(), nil
	}
	expr, err := ast.ParseTypeAnnotation(text)
	if err != nil {
		return nil, err
	}
	return typechecker.TypeFromAnnotation(expr)
}

// CheckerOptions translates the config into typechecker options.
func (c *Config) CheckerOptions() ([]typechecker.Option, error) {
	if c == nil {
		return nil, nil
	}
	var opts []typechecker.Option
	if len(c.Builtins) > 0 {
		builtins := make([]typechecker.Builtin, 0, len(c.Builtins))
		for _, spec := range c.Builtins {
			b, err := spec.Function()
			if err != nil {
				return nil, fmt.Errorf("config: builtin %q: %w", spec.Name, err)
			}
			builtins = append(builtins, b)
		}
		opts = append(opts, typechecker.WithBuiltins(builtins...))
	}
	switch {
	case c.DisableIntLimit:
		opts = append(opts, typechecker.WithMaxIntLiteral(nil))
	case c.MaxIntLiteral != nil:
		opts = append(opts, typechecker.WithMaxIntLiteral(new(big.Int).Set(c.MaxIntLiteral)))
	}
	if c.WarningsAsErrors {
		opts = append(opts, typechecker.WithWarningsAsErrors(true))
	}
	return opts, nil
}

// Dir returns the directory holding the config file, or "." for the default.
func (c *Config) Dir() string {
	if c == nil || c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

type configFile struct {
	Name             string     `yaml:"name"`
	Fixtures         stringList `yaml:"fixtures"`
	WarningsAsErrors bool       `yaml:"warnings_as_errors"`
	MaxIntLiteral    intLimit   `yaml:"max_int_literal"`
	Builtins         builtinMap `yaml:"builtins"`
	Suites           suiteMap   `yaml:"suites"`
}

func (cf configFile) toConfig(path string) *Config {
	dir := filepath.Dir(path)
	cfg := &Config{
		Path:             path,
		Name:             sanitizeSegment(cf.Name),
		WarningsAsErrors: cf.WarningsAsErrors,
		MaxIntLiteral:    cf.MaxIntLiteral.value,
		DisableIntLimit:  cf.MaxIntLiteral.disabled,
		Builtins:         append([]BuiltinSpec(nil), cf.Builtins.items...),
		Suites:           make(map[string]*SuiteSpec, len(cf.Suites.items)),
		SuiteOrder:       make([]string, 0, len(cf.Suites.items)),
	}
	for _, fixture := range cf.Fixtures.Clone() {
		if !filepath.IsAbs(fixture) {
			fixture = filepath.Join(dir, fixture)
		}
		cfg.Fixtures = append(cfg.Fixtures, fixture)
	}
	for _, item := range cf.Suites.items {
		name := sanitizeSegment(item.Name)
		if _, exists := cfg.Suites[name]; !exists {
			cfg.SuiteOrder = append(cfg.SuiteOrder, name)
		}
		suite := item
		suite.Name = name
		cfg.Suites[name] = &suite
	}
	return cfg
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}

// intLimit accepts an integer (arbitrarily large) or the word "none".
type intLimit struct {
	value    *big.Int
	disabled bool
}

func (l *intLimit) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		return l.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: max_int_literal must be a scalar")
	}
	text := strings.TrimSpace(value.Value)
	if value.Tag == "!!null" || text == "" {
		*l = intLimit{}
		return nil
	}
	if strings.EqualFold(text, "none") {
		*l = intLimit{disabled: true}
		return nil
	}
	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return fmt.Errorf("config: max_int_literal %q is not an integer", text)
	}
	*l = intLimit{value: n}
	return nil
}

type builtinMap struct {
	items []BuiltinSpec
}

func (bm *builtinMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		bm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("config: builtins must be a mapping")
	}
	items := make([]BuiltinSpec, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("config: builtin names must be non-empty")
		}
		var raw struct {
			Params  []string `yaml:"params"`
			Returns string   `yaml:"returns"`
		}
		if err := value.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("config: builtin %q: %w", key, err)
		}
		items = append(items, BuiltinSpec{
			Name:    key,
			Params:  raw.Params,
			Returns: strings.TrimSpace(raw.Returns),
		})
	}
	bm.items = items
	return nil
}

type suiteMap struct {
	items []SuiteSpec
}

func (sm *suiteMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		sm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("config: suites must be a mapping")
	}
	items := make([]SuiteSpec, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("config: suite names must be non-empty")
		}
		var raw struct {
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
			Path   string `yaml:"path"`
		}
		if err := value.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("config: suite %q: %w", key, err)
		}
		items = append(items, SuiteSpec{
			Name:   key,
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
			Path:   strings.TrimSpace(raw.Path),
		})
	}
	sm.items = items
	return nil
}

type stringList []string

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			str = strings.TrimSpace(str)
			if str == "" {
				continue
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("config: expected string or sequence for list but found %s", value.ShortTag())
	}
}
