package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName sits next to apyc.yml.
const LockfileName = "apyc.lock"

// Lockfile models the apyc.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Suites    []*LockedSuite
}

// LockedSuite pins a fetched fixture suite to a commit.
type LockedSuite struct {
	Name     string
	Version  string
	Source   string
	Commit   string
	Checksum string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      sanitizeSegment(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Suites:    []*LockedSuite{},
	}
}

// LoadLockfile parses apyc.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the pinned entry for a suite.
func (l *Lockfile) Find(name string) (*LockedSuite, bool) {
	if l == nil {
		return nil, false
	}
	name = sanitizeSegment(name)
	for _, suite := range l.Suites {
		if suite != nil && suite.Name == name {
			return suite, true
		}
	}
	return nil, false
}

// Put adds or replaces the entry with the same name.
func (l *Lockfile) Put(entry *LockedSuite) {
	if l == nil || entry == nil {
		return
	}
	entry.Name = sanitizeSegment(entry.Name)
	replaced := false
	for i, suite := range l.Suites {
		if suite != nil && suite.Name == entry.Name {
			l.Suites[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		l.Suites = append(l.Suites, entry)
	}
	l.normalize()
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = sanitizeSegment(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	for _, suite := range l.Suites {
		if suite == nil {
			continue
		}
		suite.Name = sanitizeSegment(suite.Name)
		suite.Version = strings.TrimSpace(suite.Version)
		suite.Source = strings.TrimSpace(suite.Source)
		suite.Commit = strings.TrimSpace(suite.Commit)
		suite.Checksum = strings.TrimSpace(suite.Checksum)
	}
	sort.SliceStable(l.Suites, func(i, j int) bool {
		if l.Suites[i] == nil || l.Suites[j] == nil {
			return l.Suites[j] == nil && l.Suites[i] != nil
		}
		return l.Suites[i].Name < l.Suites[j].Name
	})
}

func (l *Lockfile) toDisk() lockfileDisk {
	suites := make([]lockfileSuite, 0, len(l.Suites))
	for _, suite := range l.Suites {
		if suite == nil {
			continue
		}
		suites = append(suites, lockfileSuite{
			Name:     suite.Name,
			Version:  suite.Version,
			Source:   suite.Source,
			Commit:   suite.Commit,
			Checksum: suite.Checksum,
		})
	}
	return lockfileDisk{
		Root:      l.Root,
		Generated: l.Generated,
		Tool:      l.Tool,
		Suites:    suites,
	}
}

type lockfileDisk struct {
	Root      string          `yaml:"root"`
	Generated string          `yaml:"generated"`
	Tool      string          `yaml:"tool"`
	Suites    []lockfileSuite `yaml:"suites"`
}

type lockfileSuite struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Commit   string `yaml:"commit"`
	Checksum string `yaml:"checksum"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:      d.Root,
		Generated: strings.TrimSpace(d.Generated),
		Tool:      d.Tool,
		Suites:    make([]*LockedSuite, 0, len(d.Suites)),
	}
	for _, suite := range d.Suites {
		lock.Suites = append(lock.Suites, &LockedSuite{
			Name:     suite.Name,
			Version:  suite.Version,
			Source:   suite.Source,
			Commit:   suite.Commit,
			Checksum: suite.Checksum,
		})
	}
	lock.normalize()
	return lock
}
