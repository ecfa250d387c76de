package depgraph

import (
	"path/filepath"
	"strings"
)

// ImportKind classifies how a dependency is referenced.
type ImportKind int

const (
	ImportStatic ImportKind = iota + 1
	ImportDynamic
	ImportMeta
	ImportStaticSourcePhase
	ImportDynamicSourcePhase
)

func (k ImportKind) String() string {
	switch k {
	case ImportStatic:
		return "static"
	case ImportDynamic:
		return "dynamic"
	case ImportMeta:
		return "import.meta"
	case ImportStaticSourcePhase:
		return "static-source-phase"
	case ImportDynamicSourcePhase:
		return "dynamic-source-phase"
	default:
		return "unknown"
	}
}

// ImportRecord is one dependency discovered while compiling a module.
type ImportRecord struct {
	Kind      ImportKind
	Specifier string
	// Dependency is the key of the resolved module, empty when resolution
	// could not produce one.
	Dependency string
}

// ExportRecord is one name a module exports. Source is empty for names
// declared in the module itself.
type ExportRecord struct {
	Name       string
	Source     string
	Dependency string
}

// ExportBinding ties an exported name of a barrel to the module defining it.
type ExportBinding struct {
	Name string
	// Definer is the key of the defining module.
	Definer string
	// Original is the name inside the defining module; "*" for a namespace
	// re-export.
	Original string
}

// Module is one node of the graph.
type Module struct {
	// Key identifies the module: its absolute path, or a synthetic
	// "builtin:", "external:" or "notfound:" identity.
	Key       string
	Specifier string
	Context   string
	AbsPath   string
	// RelativePath is the specifier when relative, otherwise the path
	// relative to the importing directory.
	RelativePath string
	// VAbsPath is the output location; empty when AbsPath is outside the
	// input root.
	VAbsPath string
	// VRelativePath is VAbsPath relative to the output root.
	VRelativePath string

	BuiltIn       bool
	IsNodeModules bool
	NotFound      bool
	IsEntry       bool
	IsScript      bool
	IsWildcard    bool
	Used          bool
	Optimized     bool

	// BarrelEntry marks the entry file of a configured barrel package.
	BarrelEntry bool
	// IsBarrel is set once the barrel pass accepted the module's export map.
	IsBarrel       bool
	ExportMap      []ExportBinding
	ExportWildcard []string

	Imports         []ImportRecord
	Exports         []ExportRecord
	Facade          bool
	HasModuleSyntax bool
}

func (m *Module) clone() *Module {
	c := *m
	return &c
}

// Compilable reports whether the module is produced by the compiler rather
// than referenced as is.
func (m *Module) Compilable() bool {
	return !m.BuiltIn && !m.IsNodeModules && !m.NotFound
}

var scriptExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".mts": true,
	".cts": true,
	".mjs": true,
	".cjs": true,
}

// IsScriptPath reports whether path names a file the compiler transpiles.
// Declaration files are not scripts.
func IsScriptPath(path string) bool {
	return scriptExtensions[filepath.Ext(path)] && !isDeclarationPath(path)
}

// OutputPath maps a script path to its compiled name: ".mts"/".mjs" become
// ".mjs", ".cts"/".cjs" become ".cjs" and the rest take outExt.
func OutputPath(path, outExt string) string {
	ext := filepath.Ext(path)
	if !scriptExtensions[ext] {
		return path
	}
	base := strings.TrimSuffix(path, ext)
	switch ext {
	case ".mts", ".mjs":
		return base + ".mjs"
	case ".cts", ".cjs":
		return base + ".cjs"
	default:
		return base + outExt
	}
}
