package depgraph

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/LegacyCodeHQ/tsout/resolver"
)

// ExportEntry is one export collected by the barrel pass, before resolution.
// Source is empty for names the module declares itself.
type ExportEntry struct {
	Name     string
	Source   string
	Original string
}

// Mapping locates the definition of a name exported by a barrel package.
type Mapping struct {
	Definer  string
	Original string
}

// SeedBarrel resolves a configured barrel package from context and enrolls
// its entry module for the barrel pass. It returns nil when the package
// cannot be found.
func (g *Graph) SeedBarrel(pkg, context string) *Module {
	m := g.ResolveModule(ResolveRequest{
		Specifier: pkg,
		Context:   context,
		Format:    resolver.FormatESM,
		Wildcard:  true,
	})
	if m == nil || m.AbsPath == "" || m.BuiltIn {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	stored := g.modules[m.Key]
	stored.IsWildcard = true
	stored.BarrelEntry = true
	g.barrels[pkg] = m.Key
	delete(g.mappings, pkg)
	return stored.clone()
}

// BarrelPackages returns the enrolled barrel package specifiers, sorted.
func (g *Graph) BarrelPackages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.barrels))
	for pkg := range g.barrels {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// SetExportsInfo resolves the export sources of module key with ESM rules,
// enrolls wildcard targets for the barrel pass and stores the result.
func (g *Graph) SetExportsInfo(key string, entries []ExportEntry, wildcards []string, isBarrel bool) bool {
	m, ok := g.Get(key)
	if !ok || m.AbsPath == "" {
		return false
	}
	dir := filepath.Dir(m.AbsPath)

	exportMap := make([]ExportBinding, 0, len(entries))
	for _, e := range entries {
		definer := key
		if e.Source != "" {
			dep := g.ResolveModule(ResolveRequest{Specifier: e.Source, Context: dir, Importer: key, Format: resolver.FormatESM})
			if dep == nil {
				continue
			}
			definer = dep.Key
		}
		original := e.Original
		if original == "" {
			original = e.Name
		}
		exportMap = append(exportMap, ExportBinding{Name: e.Name, Definer: definer, Original: original})
	}

	targets := make([]string, 0, len(wildcards))
	for _, src := range wildcards {
		dep := g.ResolveModule(ResolveRequest{Specifier: src, Context: dir, Importer: key, Format: resolver.FormatESM, Wildcard: true})
		if dep == nil {
			continue
		}
		if dep.AbsPath != "" && !dep.BuiltIn {
			g.Update(dep.Key, func(t *Module) { t.IsWildcard = true })
		}
		targets = append(targets, dep.Key)
	}

	g.Update(key, func(stored *Module) {
		stored.ExportMap = exportMap
		stored.ExportWildcard = targets
		stored.IsBarrel = isBarrel
	})

	g.mu.Lock()
	for pkg, entry := range g.barrels {
		if entry == key {
			delete(g.mappings, pkg)
		}
	}
	g.mu.Unlock()
	return true
}

// Mappings returns the flattened name to definition map of an enrolled
// barrel package. ok is false when pkg is not enrolled or its entry file was
// not accepted as a barrel.
func (g *Graph) Mappings(pkg string) (map[string]Mapping, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.mappings[pkg]; ok {
		return cached, cached != nil
	}
	key, ok := g.barrels[pkg]
	if !ok {
		return nil, false
	}
	entry := g.modules[key]
	if entry == nil || !entry.IsBarrel {
		g.mappings[pkg] = nil
		return nil, false
	}

	acc := make(map[string]Mapping)
	w := &matchWalker{graph: g, onStack: make(map[string]bool), visited: make(map[string]bool)}
	w.collect(key, acc, true)
	for _, cycle := range w.cycles {
		buildlog.Warn("wildcard re-export cycle", map[string]any{
			"package": pkg,
			"cycle":   strings.Join(cycle, " -> "),
		})
	}
	g.cycles = append(g.cycles, w.cycles...)
	g.mappings[pkg] = acc
	return acc, true
}

// ExportCycles returns the wildcard re-export cycles found so far.
func (g *Graph) ExportCycles() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]string, len(g.cycles))
	copy(out, g.cycles)
	return out
}

// matchWalker flattens export maps along export * edges. It runs with g.mu
// held.
type matchWalker struct {
	graph   *Graph
	onStack map[string]bool
	visited map[string]bool
	stack   []string
	cycles  [][]string
}

func (w *matchWalker) collect(key string, acc map[string]Mapping, root bool) {
	if w.onStack[key] {
		start := 0
		for i, k := range w.stack {
			if k == key {
				start = i
				break
			}
		}
		cycle := append(append([]string{}, w.stack[start:]...), key)
		w.cycles = append(w.cycles, cycle)
		return
	}
	if w.visited[key] {
		return
	}
	m := w.graph.modules[key]
	if m == nil {
		return
	}
	w.visited[key] = true
	w.onStack[key] = true
	w.stack = append(w.stack, key)

	for _, b := range m.ExportMap {
		// export * never forwards a default export.
		if !root && b.Name == "default" {
			continue
		}
		acc[b.Name] = Mapping{Definer: b.Definer, Original: b.Original}
	}
	for _, target := range m.ExportWildcard {
		w.collect(target, acc, false)
	}

	w.stack = w.stack[:len(w.stack)-1]
	w.onStack[key] = false
}

// BarrelReference returns the specifier importer should use to import a name
// directly from its definer instead of through barrel package pkg.
func (g *Graph) BarrelReference(pkg string, mapping Mapping, importer *Module) string {
	g.mu.Lock()
	definer := g.modules[mapping.Definer]
	entryKey := g.barrels[pkg]
	var clone *Module
	if definer != nil {
		clone = definer.clone()
	}
	g.mu.Unlock()

	if clone == nil || mapping.Definer == entryKey {
		return pkg
	}
	if clone.IsNodeModules {
		if clone.AbsPath == "" {
			return pkg
		}
		name, pkgDir := g.resolver.PackageName(filepath.Dir(clone.AbsPath))
		if name == "" {
			return pkg
		}
		rel, err := filepath.Rel(pkgDir, clone.AbsPath)
		if err != nil {
			return pkg
		}
		return name + "/" + filepath.ToSlash(rel)
	}
	return g.Reference(clone, importer, pkg)
}
