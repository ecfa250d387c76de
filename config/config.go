// Package config resolves the options of a run from defaults, tsconfig.json,
// tsout.yaml, the environment and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/LegacyCodeHQ/tsout/resolver"
)

const (
	TsconfigFileName = "tsconfig.json"
	FileName         = "tsout.yaml"
	DefaultOutputDir = "dist"
	DefaultTarget    = "ES2021"
	DefaultModule    = "CommonJS"
)

// Options are the values given on the command line. Zero values leave the
// lower layers in place.
type Options struct {
	Root           string
	Tsconfig       string
	Output         string
	Externals      []string
	Exclude        []string
	Modules        []string
	BarrelPackages []string
	Jobs           int
	SourceMap      bool
	OutExtension   string
	LogLevel       string
}

// Resolved is the configuration of one run. All paths are absolute.
type Resolved struct {
	ProjectRoot string
	InputRoot   string
	OutputRoot  string
	// Exclude holds doublestar patterns relative to InputRoot.
	Exclude        []string
	Externals      []string
	Modules        []string
	BarrelPackages []string
	Target         string
	Module         string
	BaseURL        string
	Paths          map[string][]string
	PathsBase      string
	Jobs           int
	SourceMap      bool
	OutExtension   string
	LogLevel       string
}

// Load resolves the configuration for opts.Root. A missing tsconfig.json or
// tsout.yaml is not an error unless the tsconfig path was given explicitly.
func Load(opts Options) (*Resolved, error) {
	root, err := projectRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		ProjectRoot:  root,
		InputRoot:    root,
		OutputRoot:   filepath.Join(root, DefaultOutputDir),
		Target:       DefaultTarget,
		Module:       DefaultModule,
		Modules:      []string{"node_modules"},
		PathsBase:    root,
		Jobs:         runtime.NumCPU(),
		OutExtension: ".js",
		LogLevel:     "warn",
	}

	tsPath := filepath.Join(root, TsconfigFileName)
	if opts.Tsconfig != "" {
		if tsPath, err = filepath.Abs(opts.Tsconfig); err != nil {
			return nil, fmt.Errorf("failed to resolve tsconfig path: %w", err)
		}
	}
	ts, err := readTsconfig(tsPath)
	switch {
	case err == nil:
		r.applyTsconfig(ts, filepath.Dir(tsPath))
	case errors.Is(err, fs.ErrNotExist) && opts.Tsconfig == "":
	default:
		return nil, err
	}

	fc, err := readFileConfig(filepath.Join(root, FileName))
	switch {
	case err == nil:
		r.applyFileConfig(fc)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	env, err := readEnv(root)
	if err != nil {
		return nil, err
	}
	if err := r.applyEnv(env); err != nil {
		return nil, err
	}

	r.applyOptions(opts)
	if r.Jobs < 1 {
		r.Jobs = 1
	}
	return r, nil
}

func projectRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access project root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", abs)
	}
	// Resolved module paths are real paths; entries must agree with them.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root %s: %w", abs, err)
	}
	return real, nil
}

func (r *Resolved) applyOptions(opts Options) {
	if opts.Output != "" {
		r.OutputRoot = r.abs(opts.Output)
	}
	if len(opts.Externals) > 0 {
		r.Externals = opts.Externals
	}
	if len(opts.Exclude) > 0 {
		r.Exclude = opts.Exclude
	}
	if len(opts.Modules) > 0 {
		r.Modules = opts.Modules
	}
	if len(opts.BarrelPackages) > 0 {
		r.BarrelPackages = opts.BarrelPackages
	}
	if opts.Jobs > 0 {
		r.Jobs = opts.Jobs
	}
	if opts.SourceMap {
		r.SourceMap = true
	}
	if opts.OutExtension != "" {
		r.OutExtension = normalizeExtension(opts.OutExtension)
	}
	if opts.LogLevel != "" {
		r.LogLevel = opts.LogLevel
	}
}

// abs resolves p against the project root.
func (r *Resolved) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(r.ProjectRoot, p)
}

func normalizeExtension(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// Format is the resolution format matching the emitted module system.
func (r *Resolved) Format() resolver.Format {
	if IsESModule(r.Module) {
		return resolver.FormatESM
	}
	return resolver.FormatCommonJS
}

// IsESModule reports whether a tsconfig "module" value emits ES modules.
func IsESModule(module string) bool {
	m := strings.ToLower(module)
	return strings.HasPrefix(m, "es") || m == "preserve"
}

func (r *Resolved) ResolverOptions() resolver.Options {
	return resolver.Options{
		Externals: r.Externals,
		Modules:   r.Modules,
		BaseURL:   r.BaseURL,
		Paths:     r.Paths,
		PathsBase: r.PathsBase,
	}
}

func (r *Resolved) GraphOptions() depgraph.Options {
	return depgraph.Options{
		InputRoot:    r.InputRoot,
		OutputRoot:   r.OutputRoot,
		OutExtension: r.OutExtension,
	}
}
