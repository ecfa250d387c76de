package transform

import (
	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/LegacyCodeHQ/tsout/syntax"
)

// BarrelExports is the export surface of a module as seen by the barrel
// pass.
type BarrelExports struct {
	Entries   []depgraph.ExportEntry
	Wildcards []string
	// IsBarrel is false when strict collection met a statement that is not
	// a re-export. Entries are then incomplete.
	IsBarrel bool
}

// CollectBarrel reads the export surface of m without changing it. In
// strict mode only imports, re-exports, type declarations and literal
// expression statements are accepted; in wildcard mode local declarations
// are recorded as defined by the module itself.
func CollectBarrel(m *syntax.Module, wildcard bool) BarrelExports {
	c := &barrelCollector{
		wildcard: wildcard,
		locals:   importedLocals(m),
		result:   BarrelExports{IsBarrel: true},
	}
	syntax.Walk(m, c)
	return c.result
}

// RunBarrel collects the exports of m and stores them on the graph module
// under key.
func RunBarrel(g *depgraph.Graph, key string, m *syntax.Module, wildcard bool) bool {
	b := CollectBarrel(m, wildcard)
	return g.SetExportsInfo(key, b.Entries, b.Wildcards, b.IsBarrel)
}

type barrelCollector struct {
	syntax.BaseVisitor
	wildcard bool
	locals   map[string]localImport
	result   BarrelExports
}

func (c *barrelCollector) reject() {
	if !c.wildcard {
		c.result.IsBarrel = false
	}
}

// stopped reports whether strict collection already failed.
func (c *barrelCollector) stopped() bool {
	return !c.result.IsBarrel
}

func (c *barrelCollector) add(name, source, original string) {
	c.result.Entries = append(c.result.Entries, depgraph.ExportEntry{Name: name, Source: source, Original: original})
}

func (c *barrelCollector) VisitExportNamed(x *syntax.ExportNamed) {
	if c.stopped() || x.TypeOnly {
		return
	}
	for _, s := range x.Specifiers {
		if s.TypeOnly {
			continue
		}
		switch local, imported := c.locals[s.Local]; {
		case x.Source != nil:
			c.add(s.Exported, x.Source.Value, s.Local)
		case imported:
			c.add(s.Exported, local.source, local.original)
		case c.wildcard:
			c.add(s.Exported, "", s.Local)
		default:
			c.reject()
			return
		}
	}
}

func (c *barrelCollector) VisitExportAll(x *syntax.ExportAll) {
	if c.stopped() || x.TypeOnly || x.Source == nil {
		return
	}
	if x.Alias != "" {
		c.add(x.Alias, x.Source.Value, "*")
		return
	}
	c.result.Wildcards = append(c.result.Wildcards, x.Source.Value)
}

func (c *barrelCollector) VisitExportDecl(x *syntax.ExportDecl) {
	if c.stopped() || x.TypeOnly {
		return
	}
	if !c.wildcard {
		c.reject()
		return
	}
	for _, name := range x.Names {
		c.add(name, "", name)
	}
}

func (c *barrelCollector) VisitExportDefault(x *syntax.ExportDefault) {
	if c.stopped() || x.TypeOnly {
		return
	}
	c.reject()
}

func (c *barrelCollector) VisitUnsupported(*syntax.Unsupported) {
	if c.stopped() {
		return
	}
	c.reject()
}

func (c *barrelCollector) VisitStmt(s *syntax.Stmt) {
	if c.stopped() {
		return
	}
	switch s.Kind {
	case syntax.StmtLiteral, syntax.StmtTypeDecl:
	default:
		c.reject()
	}
}
