package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"apyc/checker-go/pkg/driver"
	"apyc/checker-go/pkg/logger"
)

const cliToolVersion = "apyc-check 0.1.0-dev"

var errConfigNotFound = errors.New("apyc.yml not found")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apyc-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts globalOptions
	fs.StringVar(&opts.configPath, "config", "", "path to apyc.yml (default: search upwards from the working directory)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if err := initLogging(opts, stderr); err != nil {
		fmt.Fprintf(stderr, "apyc-check: %v\n", err)
		return 2
	}
	defer logger.Close()

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return 1
	}
	switch rest[0] {
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "version", "--version", "-V":
		fmt.Fprintln(stdout, cliToolVersion)
		return 0
	case "check":
		return runCheck(opts, rest[1:], stdout, stderr)
	case "fixtures":
		return runFixtures(opts, rest[1:], stdout, stderr)
	case "fetch":
		return runFetch(opts, rest[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  apyc-check [--config apyc.yml] [--log-level warn] [--log-format text] <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  check [--scopes] <module.json>...   typecheck JSON AST modules")
	fmt.Fprintln(w, "  fixtures [--workers N] [dir...]     replay fixture directories")
	fmt.Fprintln(w, "  fetch                               fetch configured suites and update apyc.lock")
	fmt.Fprintln(w, "  version                             print the tool version")
	fmt.Fprintln(w, "  help                                show this message")
}

func initLogging(opts globalOptions, stderr io.Writer) error {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.Format = opts.logFormat
	cfg.Output = stderr
	cfg.LogFile = opts.logFile
	return logger.Init(cfg)
}

func runCheck(opts globalOptions, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dumpScopes := fs.Bool("scopes", false, "print the resolved scope tree")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "apyc-check check requires at least one module")
		return 2
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	runner, err := driver.NewRunner(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	status := 0
	for _, path := range fs.Args() {
		result, err := runner.CheckFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			status = 1
			continue
		}
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(stdout, "%s:%s\n", path, diag)
		}
		if *dumpScopes {
			fmt.Fprint(stdout, result.Module.Dump())
		}
		if result.Failed() {
			status = 1
		}
	}
	return status
}

func runFixtures(opts globalOptions, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fixtures", flag.ContinueOnError)
	fs.SetOutput(stderr)
	workers := fs.Int("workers", 0, "concurrent fixtures (default: GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	runner, err := driver.NewRunner(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	runner.Workers = *workers

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	roots := fs.Args()
	if len(roots) == 0 {
		roots = append(roots, cfg.Fixtures...)
		suiteRoots, err := cachedSuiteRoots(ctx, cfg)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		roots = append(roots, suiteRoots...)
	}
	if len(roots) == 0 {
		fmt.Fprintln(stderr, "no fixture directories given and none configured")
		return 2
	}

	var dirs []string
	for _, root := range roots {
		found, err := driver.DiscoverFixtures(root)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		dirs = append(dirs, found...)
	}

	failed := 0
	for _, res := range runner.RunSuite(ctx, dirs) {
		if res.Passed() {
			fmt.Fprintf(stdout, "ok   %s\n", res.Dir)
			continue
		}
		failed++
		fmt.Fprintf(stdout, "FAIL %s\n", res.Dir)
		if res.Err != nil {
			fmt.Fprintf(stdout, "     %v\n", res.Err)
		}
		for _, failure := range res.Failures {
			fmt.Fprintf(stdout, "     %s\n", failure)
		}
		if res.Result != nil {
			for _, diag := range res.Result.Diagnostics {
				fmt.Fprintf(stdout, "     %s\n", diag)
			}
		}
	}
	fmt.Fprintf(stdout, "%d fixtures, %d failed\n", len(dirs), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// cachedSuiteRoots returns fixture roots for suites pinned in apyc.lock,
// fetching any that are missing from the cache.
func cachedSuiteRoots(ctx context.Context, cfg *driver.Config) ([]string, error) {
	if len(cfg.SuiteOrder) == 0 {
		return nil, nil
	}
	lock, err := driver.LoadLockfile(filepath.Join(cfg.Dir(), driver.LockfileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s missing; run `apyc-check fetch`", driver.LockfileName)
		}
		return nil, err
	}
	cacheDir, err := resolveApycHome()
	if err != nil {
		return nil, err
	}
	fetcher := driver.NewFetcher(cacheDir)
	var roots []string
	for _, name := range cfg.SuiteOrder {
		pinned, ok := lock.Find(name)
		if !ok {
			return nil, fmt.Errorf("suite %q is not locked; run `apyc-check fetch`", name)
		}
		fetched, err := fetcher.Fetch(ctx, cfg.Suites[name], pinned)
		if err != nil {
			return nil, err
		}
		roots = append(roots, fetched.Root)
	}
	return roots, nil
}

func runFetch(opts globalOptions, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(args, " "))
		return 2
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if cfg.Path == "" {
		fmt.Fprintln(stderr, "apyc-check fetch requires an apyc.yml")
		return 1
	}
	cacheDir, err := resolveApycHome()
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve APYC_HOME: %v\n", err)
		return 1
	}

	lockPath := filepath.Join(cfg.Dir(), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	switch {
	case err == nil:
		if lock.Root != cfg.Name {
			fmt.Fprintf(stderr, "lockfile root %q does not match config name %q\n", lock.Root, cfg.Name)
			return 1
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(cfg.Name, cliToolVersion)
	default:
		fmt.Fprintf(stderr, "failed to read lockfile: %v\n", err)
		return 1
	}
	lock.Tool = cliToolVersion

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fetcher := driver.NewFetcher(cacheDir)
	for _, name := range cfg.SuiteOrder {
		spec := cfg.Suites[name]
		var pinned *driver.LockedSuite
		if existing, ok := lock.Find(name); ok {
			pinned = existing
		}
		fetched, err := fetcher.Fetch(ctx, spec, pinned)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		lock.Put(fetched.Lock)
		fmt.Fprintf(stdout, "%s %s -> %s\n", name, fetched.Lock.Version, fetched.Root)
	}
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintf(stderr, "failed to write lockfile: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %s\n", lockPath)
	return 0
}

func loadConfig(explicit string) (*driver.Config, error) {
	if explicit != "" {
		return driver.LoadConfig(explicit)
	}
	path, err := findConfig(".")
	if err != nil {
		if errors.Is(err, errConfigNotFound) {
			return driver.DefaultConfig(), nil
		}
		return nil, err
	}
	return driver.LoadConfig(path)
}

func findConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, driver.ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", driver.ConfigFileName, origin, errConfigNotFound)
		}
		dir = parent
	}
}

func resolveApycHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("APYC_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve APYC_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".apyc"), nil
}
