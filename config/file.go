package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the layout of tsout.yaml.
type fileConfig struct {
	Output         string   `yaml:"output"`
	Externals      []string `yaml:"externals"`
	Exclude        []string `yaml:"exclude"`
	Modules        []string `yaml:"modules"`
	BarrelPackages []string `yaml:"barrelPackages"`
	Jobs           int      `yaml:"jobs"`
	SourceMap      *bool    `yaml:"sourceMap"`
	OutExtension   string   `yaml:"outExtension"`
}

func readFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc := new(fileConfig)
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}
	return fc, nil
}

func (r *Resolved) applyFileConfig(fc *fileConfig) {
	if fc.Output != "" {
		r.OutputRoot = r.abs(fc.Output)
	}
	if len(fc.Externals) > 0 {
		r.Externals = fc.Externals
	}
	if len(fc.Exclude) > 0 {
		r.Exclude = fc.Exclude
	}
	if len(fc.Modules) > 0 {
		r.Modules = fc.Modules
	}
	if len(fc.BarrelPackages) > 0 {
		r.BarrelPackages = fc.BarrelPackages
	}
	if fc.Jobs > 0 {
		r.Jobs = fc.Jobs
	}
	if fc.SourceMap != nil {
		r.SourceMap = *fc.SourceMap
	}
	if fc.OutExtension != "" {
		r.OutExtension = normalizeExtension(fc.OutExtension)
	}
}
