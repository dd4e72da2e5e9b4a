package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"apyc/checker-go/pkg/ast"
)

// LoadModule reads a JSON AST module from disk. A module without a name
// takes the file's base name.
func LoadModule(path string) (*ast.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read module %s: %w", path, err)
	}
	mod, err := DecodeModule(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if mod.Name == "" {
		mod.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return mod, nil
}

// DiscoverFixtures returns every directory under root that holds a
// manifest.yml, sorted by path. A root that is itself a fixture is returned
// alone.
func DiscoverFixtures(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("driver: fixtures %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("driver: fixtures %s is not a directory", root)
	}
	var dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ManifestFileName {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("driver: walk %s: %w", root, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}
