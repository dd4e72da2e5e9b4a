package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"apyc/checker-go/pkg/logger"
)

// Fetcher clones fixture suites into a cache directory laid out as
// <cache>/suites/<name>/<version>.
type Fetcher struct {
	CacheDir string
}

// NewFetcher returns a fetcher rooted at cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{CacheDir: cacheDir}
}

// FetchedSuite is a checked-out suite ready to run.
type FetchedSuite struct {
	Lock *LockedSuite
	// Checkout is the repository root; Root is the fixture directory inside it.
	Checkout string
	Root     string
}

// Fetch clones the suite (or reuses a cached checkout) and returns its lock
// entry. A lock entry with a matching source pins the fetch to its commit.
func (f *Fetcher) Fetch(ctx context.Context, spec *SuiteSpec, pinned *LockedSuite) (*FetchedSuite, error) {
	if f == nil || f.CacheDir == "" {
		return nil, errors.New("fetch: cache directory required")
	}
	if spec == nil {
		return nil, errors.New("fetch: nil suite")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("fetch: suite %q: git URL required", spec.Name)
	}
	request := *spec
	if pinned != nil && pinned.Commit != "" && strings.HasPrefix(pinned.Source, "git+"+url+"@") {
		request.Rev, request.Tag, request.Branch = pinned.Commit, "", ""
	}

	logger.Debug("fetching suite", "suite", spec.Name, "url", url)
	baseDir := filepath.Join(f.CacheDir, "suites", sanitizePathSegment(spec.Name))
	version, commit, err := ensureGitCheckout(ctx, baseDir, url, &request)
	if err != nil {
		return nil, fmt.Errorf("fetch: suite %q: %w", spec.Name, err)
	}
	if pinned != nil && pinned.Commit == commit && pinned.Version != "" {
		version = pinned.Version
	}

	checkout := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(checkout); err != nil {
		checkout = filepath.Join(baseDir, sanitizePathSegment(commit))
	}
	checksum, err := dirChecksum(checkout)
	if err != nil {
		return nil, fmt.Errorf("fetch: checksum %s: %w", checkout, err)
	}
	root := checkout
	if spec.Path != "" {
		root = filepath.Join(checkout, filepath.Clean(spec.Path))
	}
	return &FetchedSuite{
		Lock: &LockedSuite{
			Name:     sanitizeSegment(spec.Name),
			Version:  version,
			Source:   fmt.Sprintf("git+%s@%s", url, commit),
			Commit:   commit,
			Checksum: checksum,
		},
		Checkout: checkout,
		Root:     root,
	}, nil
}

func ensureGitCheckout(ctx context.Context, baseDir, url string, spec *SuiteSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return "", "", err
	}

	explicitRev := strings.TrimSpace(spec.Rev)
	if explicitRev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(explicitRev))
		if _, err := os.Stat(existing); err == nil {
			return explicitRev, explicitRev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL:               url,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

func gitRevisionFromSpec(spec *SuiteSpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git suites require rev, tag, or branch")
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// dirChecksum hashes file names and contents in path order, skipping .git.
func dirChecksum(path string) (string, error) {
	var files []string
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)
	h := sha256.New()
	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return "", err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
