package transform

import (
	"fmt"
	"path/filepath"

	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/LegacyCodeHQ/tsout/resolver"
	"github.com/LegacyCodeHQ/tsout/syntax"
)

// Extractor classifies the imports and exports of one module, registers
// every dependency it finds in the graph and rewrites the specifiers to
// their output locations.
type Extractor struct {
	syntax.BaseVisitor

	graph  *depgraph.Graph
	module *depgraph.Module
	dir    string
	format resolver.Format

	locals  map[string]localImport
	barrels map[string]bool

	imports         []depgraph.ImportRecord
	exports         []depgraph.ExportRecord
	facade          bool
	hasModuleSyntax bool
}

// NewExtractor binds an extractor to the graph module stored under key.
func NewExtractor(g *depgraph.Graph, key string, format resolver.Format) (*Extractor, error) {
	m, ok := g.Get(key)
	if !ok {
		return nil, fmt.Errorf("module %s is not in the graph", key)
	}
	if m.AbsPath == "" {
		return nil, fmt.Errorf("module %s has no path", key)
	}
	barrels := make(map[string]bool)
	for _, pkg := range g.BarrelPackages() {
		barrels[pkg] = true
	}
	return &Extractor{
		graph:   g,
		module:  m,
		dir:     filepath.Dir(m.AbsPath),
		format:  format,
		barrels: barrels,
	}, nil
}

// Run walks m, rewriting it in place, and stores the collected imports,
// exports and facade classification on the graph module.
func (e *Extractor) Run(m *syntax.Module) {
	e.locals = importedLocals(m)
	e.imports = nil
	e.exports = nil
	e.facade = true
	e.hasModuleSyntax = false

	syntax.Walk(m, e)

	e.graph.Update(e.module.Key, func(stored *depgraph.Module) {
		stored.Imports = e.imports
		stored.Exports = e.exports
		stored.Facade = e.facade
		stored.HasModuleSyntax = e.hasModuleSyntax
	})
}

func (e *Extractor) resolve(specifier string) *depgraph.Module {
	return e.graph.ResolveModule(depgraph.ResolveRequest{
		Specifier: specifier,
		Context:   e.dir,
		Importer:  e.module.Key,
		Format:    e.format,
	})
}

func (e *Extractor) rewrite(lit *syntax.StringLit, dep *depgraph.Module) {
	if dep == nil {
		return
	}
	if ref := e.graph.Reference(dep, e.module, lit.Value); ref != "" {
		lit.Set(ref)
	}
}

func (e *Extractor) addImport(kind depgraph.ImportKind, lit *syntax.StringLit) {
	dep := e.resolve(lit.Value)
	record := depgraph.ImportRecord{Kind: kind, Specifier: lit.Value}
	if dep != nil {
		record.Dependency = dep.Key
	}
	e.imports = append(e.imports, record)
	e.rewrite(lit, dep)
}

func (e *Extractor) VisitImportDecl(d *syntax.ImportDecl) {
	e.hasModuleSyntax = true
	if d.Source == nil || d.AllTypeOnly() {
		return
	}
	if e.redirectToDefiner(d) {
		return
	}
	kind := depgraph.ImportStatic
	if d.Phase == syntax.PhaseSource {
		kind = depgraph.ImportStaticSourcePhase
	}
	e.addImport(kind, d.Source)
}

// redirectToDefiner points a single named import of an enrolled barrel
// package at the module that defines the name.
func (e *Extractor) redirectToDefiner(d *syntax.ImportDecl) bool {
	pkg := d.Source.Value
	if !e.barrels[pkg] || d.Phase != syntax.PhaseEvaluation {
		return false
	}
	if d.Default != "" || d.Namespace != "" || len(d.Named) != 1 || d.Named[0].TypeOnly {
		return false
	}
	mappings, ok := e.graph.Mappings(pkg)
	if !ok {
		return false
	}
	spec := d.Named[0]
	mapping, ok := mappings[spec.Imported]
	if !ok {
		return false
	}
	ref := e.graph.BarrelReference(pkg, mapping, e.module)
	if ref == pkg {
		return false
	}

	local := spec.Local
	if local == "" {
		local = spec.Imported
	}
	switch mapping.Original {
	case "*":
		d.Named = nil
		d.HasNamedClause = false
		d.Namespace = local
	default:
		d.Named = []syntax.ImportSpecifier{{Imported: mapping.Original, Local: local}}
		d.HasNamedClause = true
	}
	d.Source.Set(ref)
	d.Regenerate = true

	e.imports = append(e.imports, depgraph.ImportRecord{
		Kind:       depgraph.ImportStatic,
		Specifier:  pkg,
		Dependency: mapping.Definer,
	})
	e.graph.AddDependency(e.module.Key, mapping.Definer)
	buildlog.Debug("redirected barrel import", map[string]any{
		"path":    e.module.AbsPath,
		"package": pkg,
		"name":    spec.Imported,
		"to":      ref,
	})
	return true
}

func (e *Extractor) VisitExportNamed(x *syntax.ExportNamed) {
	e.hasModuleSyntax = true
	if x.TypeOnly {
		return
	}
	var names []string
	for _, s := range x.Specifiers {
		if !s.TypeOnly {
			names = append(names, s.Exported)
		}
	}

	if x.Source != nil {
		if len(x.Specifiers) > 0 && len(names) == 0 {
			return
		}
		dep := e.resolve(x.Source.Value)
		for _, name := range names {
			record := depgraph.ExportRecord{Name: name, Source: x.Source.Value}
			if dep != nil {
				record.Dependency = dep.Key
			}
			e.exports = append(e.exports, record)
		}
		e.rewrite(x.Source, dep)
		return
	}

	for _, s := range x.Specifiers {
		if s.TypeOnly {
			continue
		}
		record := depgraph.ExportRecord{Name: s.Exported}
		if local, ok := e.locals[s.Local]; ok {
			// The statement has no specifier to rewrite; the import that
			// introduced the binding is rewritten on its own.
			record.Source = local.source
			if dep := e.resolve(local.source); dep != nil {
				record.Dependency = dep.Key
			}
		}
		e.exports = append(e.exports, record)
	}
}

func (e *Extractor) VisitExportAll(x *syntax.ExportAll) {
	e.hasModuleSyntax = true
	if x.TypeOnly || x.Source == nil {
		return
	}
	name := x.Alias
	if name == "" {
		name = "*"
	}
	dep := e.resolve(x.Source.Value)
	record := depgraph.ExportRecord{Name: name, Source: x.Source.Value}
	if dep != nil {
		record.Dependency = dep.Key
	}
	e.exports = append(e.exports, record)
	e.rewrite(x.Source, dep)
}

func (e *Extractor) VisitExportDecl(x *syntax.ExportDecl) {
	e.hasModuleSyntax = true
	if x.TypeOnly {
		return
	}
	e.facade = false
	for _, name := range x.Names {
		e.exports = append(e.exports, depgraph.ExportRecord{Name: name})
	}
	if x.SkippedRest > 0 {
		buildlog.Debug("object rest element in exported declaration is not recorded", map[string]any{
			"path":  e.module.AbsPath,
			"count": x.SkippedRest,
		})
	}
}

func (e *Extractor) VisitExportDefault(x *syntax.ExportDefault) {
	e.hasModuleSyntax = true
	if x.TypeOnly {
		return
	}
	e.facade = false
	e.exports = append(e.exports, depgraph.ExportRecord{Name: "default"})
}

func (e *Extractor) VisitUnsupported(u *syntax.Unsupported) {
	e.hasModuleSyntax = true
	e.facade = false
	buildlog.Debug("skipped unsupported module syntax", map[string]any{
		"path": e.module.AbsPath,
		"form": u.Kind.String(),
	})
}

func (e *Extractor) VisitStmt(s *syntax.Stmt) {
	if s.Kind == syntax.StmtOther {
		e.facade = false
	}
}

func (e *Extractor) VisitDynamicImport(d *syntax.DynamicImport) {
	if d.Source == nil {
		return
	}
	kind := depgraph.ImportDynamic
	if d.Phase == syntax.PhaseSource {
		kind = depgraph.ImportDynamicSourcePhase
	}
	e.addImport(kind, d.Source)
}

func (e *Extractor) VisitImportMeta(*syntax.ImportMeta) {
	e.hasModuleSyntax = true
	e.imports = append(e.imports, depgraph.ImportRecord{Kind: depgraph.ImportMeta})
}
