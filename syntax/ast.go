// Package syntax lowers TypeScript and JavaScript sources into the closed set
// of module-level forms the compiler rewrites, and prints them back.
package syntax

// Span is a half-open byte range into the source.
type Span struct {
	Start uint32
	End   uint32
}

// Phase distinguishes evaluation imports from source-phase imports.
type Phase int

const (
	PhaseEvaluation Phase = iota
	PhaseSource
)

// StringLit is a module specifier literal.
type StringLit struct {
	Span  Span
	Value string
	// Quote is the delimiter used in the source: '"', '\'' or '`'.
	Quote byte
	// Rewritten replaces Value in the printed output when non-empty.
	Rewritten string
}

// Set rewrites the literal to value.
func (s *StringLit) Set(value string) {
	if s == nil {
		return
	}
	if value == s.Value {
		s.Rewritten = ""
		return
	}
	s.Rewritten = value
}

// Current returns the value the literal will print with.
func (s *StringLit) Current() string {
	if s == nil {
		return ""
	}
	if s.Rewritten != "" {
		return s.Rewritten
	}
	return s.Value
}

// Item is one top-level statement of a module.
type Item interface {
	ItemSpan() Span
	accept(v Visitor)
}

// ImportSpecifier is one name of a named import clause.
type ImportSpecifier struct {
	Imported string
	Local    string
	TypeOnly bool
	// ImportedIsString is set for `import { "a-b" as c }`.
	ImportedIsString bool
}

// ImportDecl is an import statement.
type ImportDecl struct {
	Span      Span
	TypeOnly  bool
	Phase     Phase
	Default   string
	Namespace string
	Named     []ImportSpecifier
	// HasNamedClause is set when braces were written, even if empty.
	HasNamedClause bool
	Source         *StringLit
	// Attributes is the raw `with { ... }` clause.
	Attributes string
	// Regenerate prints the declaration from its fields instead of the source.
	Regenerate bool
}

func (d *ImportDecl) ItemSpan() Span   { return d.Span }
func (d *ImportDecl) accept(v Visitor) { v.VisitImportDecl(d) }

// IsBare reports whether the import only runs the module: `import 'x'`.
func (d *ImportDecl) IsBare() bool {
	return d.Default == "" && d.Namespace == "" && len(d.Named) == 0 && !d.HasNamedClause
}

// AllTypeOnly reports whether no runtime binding is imported.
func (d *ImportDecl) AllTypeOnly() bool {
	if d.TypeOnly {
		return true
	}
	if d.Default != "" || d.Namespace != "" || len(d.Named) == 0 {
		return false
	}
	for _, s := range d.Named {
		if !s.TypeOnly {
			return false
		}
	}
	return true
}

// ExportSpecifier is one name of an export clause.
type ExportSpecifier struct {
	Local    string
	Exported string
	TypeOnly bool
}

// ExportNamed is `export { a, b as c }` with an optional `from` source.
type ExportNamed struct {
	Span       Span
	TypeOnly   bool
	Specifiers []ExportSpecifier
	Source     *StringLit
}

func (e *ExportNamed) ItemSpan() Span   { return e.Span }
func (e *ExportNamed) accept(v Visitor) { v.VisitExportNamed(e) }

// ExportAll is `export * from 'x'` or `export * as ns from 'x'`.
type ExportAll struct {
	Span     Span
	TypeOnly bool
	Alias    string
	Source   *StringLit
}

func (e *ExportAll) ItemSpan() Span   { return e.Span }
func (e *ExportAll) accept(v Visitor) { v.VisitExportAll(e) }

// DeclKind is the kind of an exported declaration.
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclFunction
	DeclClass
	DeclEnum
	DeclNamespace
	DeclInterface
	DeclTypeAlias
	DeclAmbient
)

// ExportDecl is `export <declaration>`.
type ExportDecl struct {
	Span     Span
	Kind     DeclKind
	Names    []string
	TypeOnly bool
	// SkippedRest counts object rest elements whose names were not recorded.
	SkippedRest int
}

func (e *ExportDecl) ItemSpan() Span   { return e.Span }
func (e *ExportDecl) accept(v Visitor) { v.VisitExportDecl(e) }

// ExportDefault is `export default ...`.
type ExportDefault struct {
	Span Span
	// Local is the declared or referenced identifier, if any.
	Local    string
	IsDecl   bool
	TypeOnly bool
}

func (e *ExportDefault) ItemSpan() Span   { return e.Span }
func (e *ExportDefault) accept(v Visitor) { v.VisitExportDefault(e) }

// UnsupportedKind names a module form that is recognized but not modeled.
type UnsupportedKind int

const (
	UnsupportedExportAssign UnsupportedKind = iota
	UnsupportedImportEquals
	UnsupportedNamespaceExport
	UnsupportedExportFrom
	UnsupportedOther
)

func (k UnsupportedKind) String() string {
	switch k {
	case UnsupportedExportAssign:
		return "export ="
	case UnsupportedImportEquals:
		return "import ="
	case UnsupportedNamespaceExport:
		return "export as namespace"
	case UnsupportedExportFrom:
		return "export v from"
	default:
		return "unsupported export"
	}
}

// Unsupported is a module form that is passed through untouched.
type Unsupported struct {
	Span Span
	Kind UnsupportedKind
	// Source is set for `import x = require('y')`.
	Source *StringLit
}

func (u *Unsupported) ItemSpan() Span   { return u.Span }
func (u *Unsupported) accept(v Visitor) { v.VisitUnsupported(u) }

// StmtKind classifies a non-module statement.
type StmtKind int

const (
	StmtOther StmtKind = iota
	// StmtLiteral is an expression statement holding only a literal, such as
	// a directive.
	StmtLiteral
	// StmtDynamicImport is `import('x')` with a literal argument as a statement.
	StmtDynamicImport
	// StmtTypeDecl is a declaration erased by compilation.
	StmtTypeDecl
)

// Stmt is any other top-level statement.
type Stmt struct {
	Span Span
	Kind StmtKind
}

func (s *Stmt) ItemSpan() Span   { return s.Span }
func (s *Stmt) accept(v Visitor) { v.VisitStmt(s) }

// DynamicImport is an `import(...)` call anywhere in the module.
type DynamicImport struct {
	Span  Span
	Phase Phase
	// Source is nil when the argument is not a literal.
	Source *StringLit
}

// ImportMeta is an `import.meta` reference.
type ImportMeta struct {
	Span Span
}

// Diagnostic reports a construct the lowering could not model.
type Diagnostic struct {
	Line    int
	Message string
}

// Module is a lowered source file.
type Module struct {
	Path           string
	Source         []byte
	Items          []Item
	DynamicImports []*DynamicImport
	ImportMetas    []*ImportMeta
	Diagnostics    []Diagnostic
}
