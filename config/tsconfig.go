package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tailscale/hujson"
)

const maxExtendsDepth = 8

type tsconfig struct {
	Extends         string   `json:"extends"`
	Include         []string `json:"include"`
	Exclude         []string `json:"exclude"`
	CompilerOptions struct {
		OutDir    string              `json:"outDir"`
		Target    string              `json:"target"`
		Module    string              `json:"module"`
		BaseURL   string              `json:"baseUrl"`
		Paths     map[string][]string `json:"paths"`
		SourceMap *bool               `json:"sourceMap"`
	} `json:"compilerOptions"`

	// dir is the directory relative options of this file resolve against.
	dir string
}

// readTsconfig reads a tsconfig file, which may contain comments and
// trailing commas. Relative "extends" chains are followed; the extending
// file wins field by field.
func readTsconfig(path string) (*tsconfig, error) {
	return readTsconfigDepth(path, 0)
}

func readTsconfigDepth(path string, depth int) (*tsconfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data, err = hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	ts := &tsconfig{dir: filepath.Dir(path)}
	if err := json.Unmarshal(data, ts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if ts.Extends == "" || !strings.HasPrefix(ts.Extends, ".") {
		return ts, nil
	}
	if depth >= maxExtendsDepth {
		return nil, fmt.Errorf("tsconfig extends chain from %s is too deep", path)
	}
	basePath := filepath.Join(ts.dir, ts.Extends)
	if filepath.Ext(basePath) != ".json" {
		basePath += ".json"
	}
	base, err := readTsconfigDepth(basePath, depth+1)
	if err != nil {
		return nil, err
	}
	return ts.over(base), nil
}

// over fills the unset fields of ts from base.
func (ts *tsconfig) over(base *tsconfig) *tsconfig {
	merged := *base
	merged.dir = ts.dir
	// Relative values inherited from base stay relative to base.
	if len(ts.Include) > 0 {
		merged.Include = ts.Include
	} else {
		merged.Include = rebase(base.Include, base.dir, ts.dir)
	}
	if len(ts.Exclude) > 0 {
		merged.Exclude = ts.Exclude
	}
	co := &merged.CompilerOptions
	if ts.CompilerOptions.OutDir != "" {
		co.OutDir = ts.CompilerOptions.OutDir
	} else if co.OutDir != "" {
		co.OutDir = rebaseOne(co.OutDir, base.dir, ts.dir)
	}
	if ts.CompilerOptions.Target != "" {
		co.Target = ts.CompilerOptions.Target
	}
	if ts.CompilerOptions.Module != "" {
		co.Module = ts.CompilerOptions.Module
	}
	if ts.CompilerOptions.BaseURL != "" {
		co.BaseURL = ts.CompilerOptions.BaseURL
	} else if co.BaseURL != "" {
		co.BaseURL = rebaseOne(co.BaseURL, base.dir, ts.dir)
	}
	if ts.CompilerOptions.Paths != nil {
		co.Paths = ts.CompilerOptions.Paths
	}
	if ts.CompilerOptions.SourceMap != nil {
		co.SourceMap = ts.CompilerOptions.SourceMap
	}
	return &merged
}

func rebase(paths []string, from, to string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = rebaseOne(p, from, to)
	}
	return out
}

func rebaseOne(p, from, to string) string {
	if filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(to, filepath.Join(from, p))
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

func (r *Resolved) applyTsconfig(ts *tsconfig, dir string) {
	if len(ts.Include) > 0 {
		r.InputRoot = filepath.Join(dir, includeBase(ts.Include[0]))
	}
	co := ts.CompilerOptions
	if co.OutDir != "" {
		r.OutputRoot = filepath.Join(dir, co.OutDir)
	}
	if len(ts.Exclude) > 0 {
		r.Exclude = ts.Exclude
	}
	if co.Target != "" {
		r.Target = co.Target
	}
	if co.Module != "" {
		r.Module = co.Module
	}
	r.PathsBase = dir
	if co.BaseURL != "" {
		r.BaseURL = filepath.Join(dir, co.BaseURL)
		r.PathsBase = r.BaseURL
	}
	if len(co.Paths) > 0 {
		r.Paths = co.Paths
	}
	if co.SourceMap != nil {
		r.SourceMap = *co.SourceMap
	}
}

// includeBase returns the directory part of an include entry: the entry
// itself when it has no glob meta characters, else the static prefix.
func includeBase(include string) string {
	include = filepath.ToSlash(include)
	if !strings.ContainsAny(include, "*?[{") {
		if filepath.Ext(include) != "" {
			return filepath.Dir(include)
		}
		return include
	}
	base, _ := doublestar.SplitPattern(include)
	return base
}
