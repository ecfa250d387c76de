// Package depgraph holds the module graph the compiler grows while it
// resolves and rewrites imports.
package depgraph

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/LegacyCodeHQ/tsout/resolver"
	graphlib "github.com/dominikbraun/graph"
)

// SpecifierResolver resolves import specifiers for the graph.
type SpecifierResolver interface {
	Resolve(specifier, context string, format resolver.Format) (*resolver.Resolved, bool)
	PackageName(dir string) (name, pkgDir string)
}

// Options configures where compiled modules are placed.
type Options struct {
	InputRoot  string
	OutputRoot string
	// OutExtension replaces .ts/.tsx/.js/.jsx on compiled scripts. Defaults to ".js".
	OutExtension string
}

// ResolveRequest describes one specifier to resolve into the graph.
type ResolveRequest struct {
	Specifier string
	// Context is the directory the specifier is resolved from.
	Context string
	// Importer is the key of the module containing the specifier, empty for
	// seeds.
	Importer string
	Format   resolver.Format
	Wildcard bool
}

// Graph stores one Module per key. It is safe for concurrent use; all
// methods return copies so callers never share records with the store.
type Graph struct {
	mu       sync.Mutex
	opts     Options
	resolver SpecifierResolver
	modules  map[string]*Module
	edges    graphlib.Graph[string, string]

	barrels  map[string]string
	mappings map[string]map[string]Mapping
	cycles   [][]string
}

// New creates an empty graph.
func New(r SpecifierResolver, opts Options) *Graph {
	if opts.OutExtension == "" {
		opts.OutExtension = ".js"
	}
	opts.InputRoot = filepath.Clean(opts.InputRoot)
	opts.OutputRoot = filepath.Clean(opts.OutputRoot)
	return &Graph{
		opts:     opts,
		resolver: r,
		modules:  make(map[string]*Module),
		edges:    graphlib.New(graphlib.StringHash, graphlib.Directed()),
		barrels:  make(map[string]string),
		mappings: make(map[string]map[string]Mapping),
	}
}

// ResolveEntryModule registers a source file found under the input root.
// An already registered path keeps its existing record.
func (g *Graph) ResolveEntryModule(path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry path %s: %w", path, err)
	}
	if !isWithin(abs, g.opts.InputRoot) {
		return nil, fmt.Errorf("entry %s is outside the input root %s", abs, g.opts.InputRoot)
	}
	rel, err := filepath.Rel(g.opts.InputRoot, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to relativize entry %s: %w", abs, err)
	}

	m := &Module{
		Key:          abs,
		Specifier:    path,
		Context:      filepath.Dir(abs),
		AbsPath:      abs,
		RelativePath: filepath.ToSlash(rel),
		IsEntry:      true,
		IsScript:     IsScriptPath(abs),
	}
	m.VAbsPath = filepath.Join(g.opts.OutputRoot, rel)
	if m.IsScript {
		m.VAbsPath = OutputPath(m.VAbsPath, g.opts.OutExtension)
	}
	m.VRelativePath = g.outputRelative(m.VAbsPath)
	if isDeclarationPath(abs) {
		m.Used = true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getOrInsert(m).clone(), nil
}

// ResolveModule resolves req and registers the result. It returns nil when
// the context directory cannot be found.
func (g *Graph) ResolveModule(req ResolveRequest) *Module {
	res, ok := g.resolver.Resolve(req.Specifier, req.Context, req.Format)
	if !ok {
		return nil
	}
	m := g.newModule(req, res)

	g.mu.Lock()
	defer g.mu.Unlock()
	stored := g.getOrInsert(m)
	if req.Importer != "" {
		g.addEdge(req.Importer, stored.Key)
	}
	return stored.clone()
}

func (g *Graph) newModule(req ResolveRequest, res *resolver.Resolved) *Module {
	m := &Module{
		Specifier:     req.Specifier,
		Context:       req.Context,
		RelativePath:  res.RelativePath,
		BuiltIn:       res.BuiltIn,
		IsNodeModules: res.IsNodeModules,
		NotFound:      res.NotFound,
		IsWildcard:    req.Wildcard,
	}

	switch {
	case res.BuiltIn:
		m.Key = "builtin:" + res.AbsPath
		m.AbsPath = res.AbsPath
	case res.NotFound:
		m.Key = "notfound:" + req.Context + "\x00" + req.Specifier
	case res.AbsPath == "":
		m.Key = "external:" + req.Specifier
	default:
		path, _ := resolver.SplitQuery(res.AbsPath)
		m.Key = path
		m.AbsPath = path
		m.IsScript = IsScriptPath(path)
		if isWithin(path, g.opts.InputRoot) {
			v := replaceCommonPrefix(path, g.opts.InputRoot, g.opts.OutputRoot)
			if m.IsScript {
				v = OutputPath(v, g.opts.OutExtension)
			}
			m.VAbsPath = v
			m.VRelativePath = g.outputRelative(v)
		}
	}

	m.Used = m.BuiltIn || m.IsNodeModules || m.NotFound || isDeclarationPath(m.AbsPath)
	return m
}

func (g *Graph) outputRelative(v string) string {
	rel, err := filepath.Rel(g.opts.OutputRoot, v)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// getOrInsert must be called with g.mu held.
func (g *Graph) getOrInsert(m *Module) *Module {
	if existing, ok := g.modules[m.Key]; ok {
		return existing
	}
	g.modules[m.Key] = m
	// The vertex cannot exist yet: modules and vertices are added together.
	_ = g.edges.AddVertex(m.Key)
	return m
}

// addEdge must be called with g.mu held.
func (g *Graph) addEdge(from, to string) {
	if _, ok := g.modules[from]; !ok {
		return
	}
	if err := g.edges.AddEdge(from, to); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
		buildlog.Debug("failed to record dependency edge", map[string]any{"from": from, "to": to, "error": err.Error()})
	}
}

// AddDependency records that from depends on to. Both must be registered.
func (g *Graph) AddDependency(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.modules[to]; !ok {
		return
	}
	g.addEdge(from, to)
}

// Get returns a copy of the module stored under key.
func (g *Graph) Get(key string) (*Module, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.modules[key]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

// Update applies fn to the stored module under key. It reports whether the
// module exists.
func (g *Graph) Update(key string, fn func(m *Module)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.modules[key]
	if !ok {
		return false
	}
	fn(m)
	return true
}

// Size returns the number of modules.
func (g *Graph) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.modules)
}

// Modules returns copies of every module, sorted by key.
func (g *Graph) Modules() []*Module {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Module, 0, len(g.modules))
	for _, m := range g.modules {
		out = append(out, m.clone())
	}
	sortModules(out)
	return out
}

// UnusedModulesSize returns how many modules still wait to be compiled.
func (g *Graph) UnusedModulesSize() int {
	return g.count(func(m *Module) bool { return !m.Used })
}

// TakeUnused marks every module that has not been compiled as used and
// returns them sorted by key.
func (g *Graph) TakeUnused() []*Module {
	return g.take(func(m *Module) bool { return !m.Used }, func(m *Module) { m.Used = true })
}

// WildcardModulesSize returns how many modules still wait for the barrel pass.
func (g *Graph) WildcardModulesSize() int {
	return g.count(func(m *Module) bool { return m.IsWildcard && !m.Optimized })
}

// TakeWildcard marks every wildcard module not yet optimized as optimized
// and returns them sorted by key.
func (g *Graph) TakeWildcard() []*Module {
	return g.take(func(m *Module) bool { return m.IsWildcard && !m.Optimized }, func(m *Module) { m.Optimized = true })
}

func (g *Graph) count(pred func(*Module) bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, m := range g.modules {
		if pred(m) {
			n++
		}
	}
	return n
}

func (g *Graph) take(pred func(*Module) bool, mark func(*Module)) []*Module {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*Module
	for _, m := range g.modules {
		if pred(m) {
			mark(m)
			out = append(out, m.clone())
		}
	}
	sortModules(out)
	return out
}

// Reference returns the specifier importer should use for dep in its
// compiled output. Modules that are not compiled keep original.
func (g *Graph) Reference(dep, importer *Module, original string) string {
	if dep == nil || importer == nil {
		return original
	}
	if !dep.Compilable() || dep.VAbsPath == "" || importer.VAbsPath == "" || isDeclarationPath(dep.AbsPath) {
		return original
	}
	_, query := resolver.SplitQuery(original)
	ref := relativeSpecifier(filepath.Dir(importer.VAbsPath), dep.VAbsPath)
	if ref == "" {
		return original
	}
	return ref + query
}

func sortModules(ms []*Module) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Key < ms[j].Key })
}

func isDeclarationPath(path string) bool {
	return strings.HasSuffix(path, ".d.ts") || strings.HasSuffix(path, ".d.mts") || strings.HasSuffix(path, ".d.cts")
}
