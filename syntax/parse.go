package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageFor picks the grammar for a file by extension.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// sourcePhaseImport matches `import source x from "y"`, which the grammars
// do not know yet.
var sourcePhaseImport = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+source[ \t]+([A-Za-z_$][\w$]*)[ \t]+from[ \t]*(?:"([^"\n]*)"|'([^'\n]*)')[ \t]*;?`)

// Parse lowers source into a Module. Syntax errors do not fail the parse;
// they are reported as diagnostics and the enclosing statements are treated
// as ordinary code.
func Parse(path string, source []byte) (*Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	l := &lowering{
		module: &Module{Path: path, Source: source},
		src:    source,
	}
	l.collectSourcePhaseImports(tree.RootNode())
	l.lowerProgram(tree.RootNode())
	sort.SliceStable(l.module.Items, func(i, j int) bool {
		return l.module.Items[i].ItemSpan().Start < l.module.Items[j].ItemSpan().Start
	})
	return l.module, nil
}

type lowering struct {
	module   *Module
	src      []byte
	reserved []Span
}

// collectSourcePhaseImports records `import source` declarations. A match
// counts only when it starts a top-level statement the grammar could not
// read as anything else; text inside comments, strings and templates is
// never a declaration.
func (l *lowering) collectSourcePhaseImports(root *sitter.Node) {
	for _, m := range sourcePhaseImport.FindAllSubmatchIndex(l.src, -1) {
		start := m[0]
		for start < m[1] && (l.src[start] == ' ' || l.src[start] == '\t') {
			start++
		}
		if !l.startsStatement(root, uint32(start)) {
			continue
		}
		lit := &StringLit{}
		switch {
		case m[4] >= 0:
			lit.Span = Span{uint32(m[4] - 1), uint32(m[5] + 1)}
			lit.Value = unescape(string(l.src[m[4]:m[5]]))
			lit.Quote = '"'
		default:
			lit.Span = Span{uint32(m[6] - 1), uint32(m[7] + 1)}
			lit.Value = unescape(string(l.src[m[6]:m[7]]))
			lit.Quote = '\''
		}
		span := Span{uint32(start), uint32(m[1])}
		l.reserved = append(l.reserved, span)
		l.module.Items = append(l.module.Items, &ImportDecl{
			Span:    span,
			Phase:   PhaseSource,
			Default: string(l.src[m[2]:m[3]]),
			Source:  lit,
		})
	}
}

// startsStatement reports whether offset is the first byte of a top-level
// node that failed to parse as a declaration.
func (l *lowering) startsStatement(root *sitter.Node, offset uint32) bool {
	top := namedChildAt(root, offset)
	if top == nil || top.StartByte() != offset {
		return false
	}
	switch top.Type() {
	case "ERROR", "expression_statement", "import_statement":
	default:
		return false
	}
	for n := top; n != nil; n = namedChildAt(n, offset) {
		switch n.Type() {
		case "comment", "string", "string_fragment", "template_string":
			return false
		}
	}
	return true
}

func namedChildAt(n *sitter.Node, offset uint32) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.StartByte() <= offset && offset < c.EndByte() {
			return c
		}
	}
	return nil
}

func (l *lowering) isReserved(n *sitter.Node) bool {
	for _, r := range l.reserved {
		if n.StartByte() < r.End && n.EndByte() > r.Start {
			return true
		}
	}
	return false
}

func (l *lowering) lowerProgram(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if l.isReserved(n) {
			l.collectExpressions(n)
			continue
		}
		switch n.Type() {
		case "comment", "hash_bang_line", "empty_statement":
			continue
		case "import_statement":
			l.module.Items = append(l.module.Items, l.lowerImport(n))
		case "export_statement":
			l.module.Items = append(l.module.Items, l.lowerExport(n))
		default:
			if n.Type() == "ERROR" || n.HasError() {
				l.diagnose(n, "syntax error")
			}
			l.module.Items = append(l.module.Items, &Stmt{Span: spanOf(n), Kind: l.classifyStmt(n)})
		}
		l.collectExpressions(n)
	}
}

func (l *lowering) diagnose(n *sitter.Node, message string) {
	l.module.Diagnostics = append(l.module.Diagnostics, Diagnostic{
		Line:    int(n.StartPoint().Row) + 1,
		Message: message,
	})
}

func spanOf(n *sitter.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}

func (l *lowering) text(n *sitter.Node) string {
	return n.Content(l.src)
}

// stringLit converts a string or template_string node. Template strings with
// substitutions are not literals.
func (l *lowering) stringLit(n *sitter.Node) *StringLit {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "string":
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return nil
			}
		}
	default:
		return nil
	}
	raw := l.text(n)
	if len(raw) < 2 {
		return nil
	}
	return &StringLit{
		Span:  spanOf(n),
		Value: unescape(raw[1 : len(raw)-1]),
		Quote: raw[0],
	}
}

// unescape decodes the body of a string or template literal. Bodies that do
// not decode are returned as written.
func unescape(body string) string {
	if !strings.ContainsAny(body, "\\\n\"") {
		return body
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			next := body[i]
			switch {
			case next == '\n':
				// Line continuation.
			case next == '\r':
				if i+1 < len(body) && body[i+1] == '\n' {
					i++
				}
			case next == '0' && (i+1 >= len(body) || body[i+1] < '0' || body[i+1] > '9'):
				b.WriteString(`\x00`)
			case strings.IndexByte(`bfnrtvxu\"`, next) >= 0:
				b.WriteByte('\\')
				b.WriteByte(next)
			default:
				// JavaScript drops the backslash of any other escape.
				b.WriteByte(next)
			}
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	decoded, err := strconv.Unquote(b.String())
	if err != nil {
		return body
	}
	return decoded
}

func (l *lowering) lowerImport(n *sitter.Node) Item {
	d := &ImportDecl{Span: spanOf(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "type", "typeof":
			if !c.IsNamed() {
				d.TypeOnly = true
			}
		case "import_clause":
			l.lowerImportClause(c, d)
		case "import_require_clause":
			return &Unsupported{
				Span:   spanOf(n),
				Kind:   UnsupportedImportEquals,
				Source: l.stringLit(c.ChildByFieldName("source")),
			}
		case "string":
			d.Source = l.stringLit(c)
		case "import_attribute":
			d.Attributes = l.text(c)
		}
	}
	if d.Source == nil {
		d.Source = l.stringLit(n.ChildByFieldName("source"))
	}
	return d
}

func (l *lowering) lowerImportClause(clause *sitter.Node, d *ImportDecl) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier":
			d.Default = l.text(c)
		case "namespace_import":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if id := c.NamedChild(j); id.Type() == "identifier" {
					d.Namespace = l.text(id)
				}
			}
		case "named_imports":
			d.HasNamedClause = true
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				parts, typeOnly := l.specifierParts(spec)
				if len(parts) == 0 {
					continue
				}
				s := ImportSpecifier{TypeOnly: typeOnly}
				s.Imported, s.ImportedIsString = parts[0].value, parts[0].isString
				s.Local = s.Imported
				if len(parts) > 1 {
					s.Local = parts[1].value
				}
				d.Named = append(d.Named, s)
			}
		}
	}
}

type namePart struct {
	value    string
	isString bool
}

// specifierParts returns the names of an import or export specifier in
// order, and whether it carries an inline `type` modifier.
func (l *lowering) specifierParts(spec *sitter.Node) ([]namePart, bool) {
	var parts []namePart
	typeOnly := false
	for i := 0; i < int(spec.ChildCount()); i++ {
		c := spec.Child(i)
		switch {
		case !c.IsNamed() && (c.Type() == "type" || c.Type() == "typeof"):
			typeOnly = true
		case !c.IsNamed() && c.Type() == "default":
			parts = append(parts, namePart{value: "default"})
		case c.Type() == "string":
			if lit := l.stringLit(c); lit != nil {
				parts = append(parts, namePart{value: lit.Value, isString: true})
			}
		case c.IsNamed() && c.Type() != "comment":
			parts = append(parts, namePart{value: l.text(c)})
		}
	}
	return parts, typeOnly
}

func (l *lowering) lowerExport(n *sitter.Node) Item {
	var (
		typeOnly, hasDefault, hasStar, hasAssign, hasNamespace bool
		clause, nsExport                                       *sitter.Node
	)
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			switch c.Type() {
			case "export_clause":
				clause = c
			case "namespace_export":
				nsExport = c
			}
			continue
		}
		switch c.Type() {
		case "type":
			typeOnly = true
		case "default":
			hasDefault = true
		case "*":
			hasStar = true
		case "=":
			hasAssign = true
		case "namespace":
			hasNamespace = true
		}
	}
	source := l.stringLit(n.ChildByFieldName("source"))
	decl := n.ChildByFieldName("declaration")
	span := spanOf(n)

	switch {
	case hasAssign:
		return &Unsupported{Span: span, Kind: UnsupportedExportAssign}
	case hasNamespace && !hasDefault && decl == nil:
		return &Unsupported{Span: span, Kind: UnsupportedNamespaceExport}
	case hasDefault:
		return l.lowerExportDefault(n, span, decl)
	case decl != nil:
		return l.lowerExportDecl(decl, span)
	case nsExport != nil:
		alias := ""
		for j := 0; j < int(nsExport.NamedChildCount()); j++ {
			c := nsExport.NamedChild(j)
			if lit := l.stringLit(c); lit != nil {
				alias = lit.Value
			} else {
				alias = l.text(c)
			}
		}
		return &ExportAll{Span: span, TypeOnly: typeOnly, Alias: alias, Source: source}
	case hasStar:
		return &ExportAll{Span: span, TypeOnly: typeOnly, Source: source}
	case clause != nil:
		e := &ExportNamed{Span: span, TypeOnly: typeOnly, Source: source}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			parts, specType := l.specifierParts(spec)
			if len(parts) == 0 {
				continue
			}
			s := ExportSpecifier{Local: parts[0].value, Exported: parts[0].value, TypeOnly: specType}
			if len(parts) > 1 {
				s.Exported = parts[1].value
			}
			e.Specifiers = append(e.Specifiers, s)
		}
		return e
	case source != nil:
		return &Unsupported{Span: span, Kind: UnsupportedExportFrom}
	}
	l.diagnose(n, "unrecognized export form")
	return &Unsupported{Span: span, Kind: UnsupportedOther}
}

func (l *lowering) lowerExportDefault(n *sitter.Node, span Span, decl *sitter.Node) Item {
	e := &ExportDefault{Span: span}
	if decl != nil {
		e.IsDecl = true
		if name := decl.ChildByFieldName("name"); name != nil {
			e.Local = l.text(name)
		}
		switch decl.Type() {
		case "interface_declaration", "type_alias_declaration":
			e.TypeOnly = true
		}
		return e
	}
	if value := n.ChildByFieldName("value"); value != nil {
		switch value.Type() {
		case "identifier":
			e.Local = l.text(value)
		case "function", "function_expression", "generator_function", "class":
			if name := value.ChildByFieldName("name"); name != nil {
				e.Local = l.text(name)
			}
		}
	}
	return e
}

func (l *lowering) lowerExportDecl(decl *sitter.Node, span Span) Item {
	e := &ExportDecl{Span: span}
	name := func() {
		if id := decl.ChildByFieldName("name"); id != nil {
			e.Names = append(e.Names, l.text(id))
		}
	}
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		e.Kind = DeclFunction
		name()
	case "function_signature":
		e.Kind = DeclFunction
		e.TypeOnly = true
		name()
	case "class_declaration", "abstract_class_declaration":
		e.Kind = DeclClass
		name()
	case "lexical_declaration", "variable_declaration":
		e.Kind = DeclVar
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			d := decl.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			var b bindingNames
			b.collect(l, d.ChildByFieldName("name"))
			e.Names = append(e.Names, b.names...)
			e.SkippedRest += b.skippedRest
		}
	case "enum_declaration":
		e.Kind = DeclEnum
		name()
	case "internal_module", "module":
		e.Kind = DeclNamespace
		name()
	case "interface_declaration":
		e.Kind = DeclInterface
		e.TypeOnly = true
		name()
	case "type_alias_declaration":
		e.Kind = DeclTypeAlias
		e.TypeOnly = true
		name()
	case "ambient_declaration":
		e.Kind = DeclAmbient
		e.TypeOnly = true
	default:
		l.diagnose(decl, "unrecognized exported declaration "+decl.Type())
	}
	return e
}

// classifyStmt sorts a top-level statement for facade detection.
func (l *lowering) classifyStmt(n *sitter.Node) StmtKind {
	switch n.Type() {
	case "interface_declaration", "type_alias_declaration", "ambient_declaration", "function_signature":
		return StmtTypeDecl
	case "expression_statement":
		if n.NamedChildCount() != 1 {
			return StmtOther
		}
		expr := n.NamedChild(0)
		if expr.Type() == "await_expression" && expr.NamedChildCount() == 1 {
			expr = expr.NamedChild(0)
		}
		switch expr.Type() {
		case "string", "number", "true", "false", "null", "undefined":
			return StmtLiteral
		case "template_string":
			if l.stringLit(expr) != nil {
				return StmtLiteral
			}
		case "call_expression":
			if d := l.dynamicImport(expr); d != nil && d.Source != nil {
				return StmtDynamicImport
			}
		}
	}
	return StmtOther
}

// collectExpressions records every dynamic import and import.meta below n.
func (l *lowering) collectExpressions(n *sitter.Node) {
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "call_expression":
			if d := l.dynamicImport(n); d != nil {
				l.module.DynamicImports = append(l.module.DynamicImports, d)
			}
		case "meta_property":
			if l.text(n) == "import.meta" {
				l.module.ImportMetas = append(l.module.ImportMetas, &ImportMeta{Span: spanOf(n)})
			}
		case "member_expression":
			obj := n.ChildByFieldName("object")
			prop := n.ChildByFieldName("property")
			if obj != nil && prop != nil && obj.Type() == "import" && l.text(prop) == "meta" {
				l.module.ImportMetas = append(l.module.ImportMetas, &ImportMeta{Span: spanOf(n)})
				return
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
}

// dynamicImport recognizes import(x) and import.source(x) calls.
func (l *lowering) dynamicImport(call *sitter.Node) *DynamicImport {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return nil
	}
	d := &DynamicImport{Span: spanOf(call)}
	switch {
	case fn.Type() == "import":
	case fn.Type() == "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Type() != "import" || l.text(prop) != "source" {
			return nil
		}
		d.Phase = PhaseSource
	default:
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args != nil && args.NamedChildCount() > 0 {
		d.Source = l.stringLit(args.NamedChild(0))
	}
	return d
}
