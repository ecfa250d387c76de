// Package compiler drives a run: it builds the export maps of barrel
// packages, then compiles every module reachable from the entry files until
// the module graph stops growing.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/LegacyCodeHQ/tsout/config"
	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/LegacyCodeHQ/tsout/resolver"
	"github.com/LegacyCodeHQ/tsout/syntax"
	"github.com/LegacyCodeHQ/tsout/transform"
	"github.com/LegacyCodeHQ/tsout/workspace"
	"golang.org/x/sync/errgroup"
)

// Compiler compiles one project. It is not reusable: build a new one per
// run.
type Compiler struct {
	cfg     *config.Resolved
	graph   *depgraph.Graph
	emitter *Emitter
	read    workspace.ContentReader
	sink    workspace.Sink
}

// Option customizes a Compiler.
type Option func(*Compiler)

// WithSink replaces the filesystem sink.
func WithSink(s workspace.Sink) Option {
	return func(c *Compiler) { c.sink = s }
}

// WithContentReader replaces the filesystem reader.
func WithContentReader(r workspace.ContentReader) Option {
	return func(c *Compiler) { c.read = r }
}

func New(cfg *config.Resolved, opts ...Option) (*Compiler, error) {
	r, err := resolver.New(cfg.ResolverOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	emitter, err := NewEmitter(cfg.Target, config.IsESModule(cfg.Module), cfg.SourceMap)
	if err != nil {
		return nil, err
	}
	c := &Compiler{
		cfg:     cfg,
		graph:   depgraph.New(r, cfg.GraphOptions()),
		emitter: emitter,
		read:    workspace.FilesystemContentReader(),
		sink:    workspace.NewFileSink(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Graph returns the module graph built so far.
func (c *Compiler) Graph() *depgraph.Graph {
	return c.graph
}

// Result counts what a run produced.
type Result struct {
	Compiled int
	Copied   int
	// Skipped modules lie outside the input root and have no output path.
	Skipped int
	Batches int
}

// Run pre-optimizes barrel packages and compiles the project.
func (c *Compiler) Run(ctx context.Context) (*Result, error) {
	if err := c.PreOptimize(ctx); err != nil {
		return nil, err
	}
	return c.Compile(ctx)
}

// PreOptimize enrolls the configured barrel packages and runs the barrel
// pass until every module reached through `export *` has been read.
func (c *Compiler) PreOptimize(ctx context.Context) error {
	for _, pkg := range c.cfg.BarrelPackages {
		if c.graph.SeedBarrel(pkg, c.cfg.ProjectRoot) == nil {
			buildlog.Warn("barrel package not found", map[string]any{"package": pkg})
		}
	}

	for c.graph.WildcardModulesSize() > 0 {
		for _, m := range c.graph.TakeWildcard() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !m.IsScript || m.AbsPath == "" {
				continue
			}
			source, err := c.read(m.AbsPath)
			if err != nil {
				return err
			}
			mod, err := syntax.Parse(m.AbsPath, source)
			if err != nil {
				buildlog.Warn("failed to parse barrel module", map[string]any{"path": m.AbsPath, "error": err.Error()})
				continue
			}
			transform.RunBarrel(c.graph, m.Key, mod, !m.BarrelEntry)
		}
	}
	return nil
}

// Compile seeds the graph with the entry files and compiles modules batch by
// batch. Each batch is marked used before it is processed, so modules found
// while compiling it form the next batch. Per-file failures do not stop the
// run; they are returned together at the end.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	files, err := c.cfg.SearchFiles()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := c.graph.ResolveEntryModule(f); err != nil {
			return nil, err
		}
	}
	splitter := transform.NewSplitter(c.graph.BarrelPackages())

	var (
		mu       sync.Mutex
		result   Result
		failures []*FileError
	)
	for c.graph.UnusedModulesSize() > 0 {
		batch := c.graph.TakeUnused()
		result.Batches++
		buildlog.Debug("compiling batch", map[string]any{"batch": result.Batches, "modules": len(batch)})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(c.cfg.Jobs, 1))
		for _, m := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				kind, err := c.compileModule(m, splitter)
				mu.Lock()
				defer mu.Unlock()
				var fileErr *FileError
				if errors.As(err, &fileErr) {
					failures = append(failures, fileErr)
					return nil
				}
				if err != nil {
					return err
				}
				result.count(kind)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return &result, err
		}
	}

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = f
		}
		return &result, errors.Join(errs...)
	}
	return &result, nil
}

type outcome int

const (
	outcomeCompiled outcome = iota
	outcomeCopied
	outcomeSkipped
)

func (r *Result) count(o outcome) {
	switch o {
	case outcomeCompiled:
		r.Compiled++
	case outcomeCopied:
		r.Copied++
	case outcomeSkipped:
		r.Skipped++
	}
}

func (c *Compiler) compileModule(m *depgraph.Module, splitter *transform.Splitter) (outcome, error) {
	if m.VAbsPath == "" {
		buildlog.Warn("module outside the input root is not compiled", map[string]any{"path": m.AbsPath})
		return outcomeSkipped, nil
	}
	if !m.IsScript {
		if err := c.sink.CopyFile(m.AbsPath, m.VAbsPath); err != nil {
			return 0, err
		}
		return outcomeCopied, nil
	}

	source, err := c.read(m.AbsPath)
	if err != nil {
		return 0, err
	}
	mod, err := syntax.Parse(m.AbsPath, source)
	if err != nil {
		return 0, &FileError{Path: m.AbsPath, Err: err}
	}
	for _, d := range mod.Diagnostics {
		buildlog.Debug(d.Message, map[string]any{"path": m.AbsPath, "line": d.Line})
	}

	splitter.Split(mod)
	format := resolver.FormatCommonJS
	if c.emitter.IsESM(m.AbsPath) {
		format = resolver.FormatESM
	}
	extractor, err := transform.NewExtractor(c.graph, m.Key, format)
	if err != nil {
		return 0, err
	}
	extractor.Run(mod)

	out, err := c.emitter.Emit(m.AbsPath, syntax.Print(mod))
	if err != nil {
		return 0, &FileError{Path: m.AbsPath, Err: err}
	}
	code := out.Code
	if out.Map != nil {
		mapPath := m.VAbsPath + ".map"
		if err := c.sink.WriteFile(mapPath, out.Map); err != nil {
			return 0, err
		}
		code = append(code, []byte("//# sourceMappingURL="+filepath.Base(mapPath)+"\n")...)
	}
	if err := c.sink.WriteFile(m.VAbsPath, code); err != nil {
		return 0, err
	}
	return outcomeCompiled, nil
}

// BarrelMappings returns the flattened export map of every enrolled barrel
// package that was accepted as a barrel.
func (c *Compiler) BarrelMappings() map[string]map[string]depgraph.Mapping {
	out := make(map[string]map[string]depgraph.Mapping)
	for _, pkg := range c.graph.BarrelPackages() {
		if mappings, ok := c.graph.Mappings(pkg); ok {
			out[pkg] = mappings
		}
	}
	return out
}
