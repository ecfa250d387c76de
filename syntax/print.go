package syntax

import (
	"bytes"
	"sort"
	"strings"
)

type edit struct {
	span Span
	text string
}

// Print renders m back to source. Untouched code is copied byte for byte;
// rewritten literals are spliced in with their original quotes and
// regenerated import declarations replace the statement they came from.
// Declarations split from one statement share its span and are joined by
// newlines.
func Print(m *Module) []byte {
	var edits []edit

	var group []*ImportDecl
	flush := func() {
		if len(group) == 0 {
			return
		}
		lines := make([]string, len(group))
		for i, d := range group {
			lines[i] = FormatImport(d)
		}
		edits = append(edits, edit{span: group[0].Span, text: strings.Join(lines, "\n")})
		group = nil
	}

	for _, it := range m.Items {
		d, ok := it.(*ImportDecl)
		if ok && d.Regenerate {
			if len(group) > 0 && group[0].Span != d.Span {
				flush()
			}
			group = append(group, d)
			continue
		}
		flush()
		for _, lit := range itemLiterals(it) {
			edits = appendLiteralEdit(edits, lit)
		}
	}
	flush()
	for _, d := range m.DynamicImports {
		edits = appendLiteralEdit(edits, d.Source)
	}

	return applyEdits(m.Source, edits)
}

func itemLiterals(it Item) []*StringLit {
	switch v := it.(type) {
	case *ImportDecl:
		return []*StringLit{v.Source}
	case *ExportNamed:
		return []*StringLit{v.Source}
	case *ExportAll:
		return []*StringLit{v.Source}
	case *Unsupported:
		return []*StringLit{v.Source}
	}
	return nil
}

func appendLiteralEdit(edits []edit, lit *StringLit) []edit {
	if lit == nil || lit.Rewritten == "" {
		return edits
	}
	return append(edits, edit{span: lit.Span, text: quote(lit.Rewritten, lit.Quote)})
}

func applyEdits(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		out := make([]byte, len(src))
		copy(out, src)
		return out
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].span.Start < edits[j].span.Start })

	var buf bytes.Buffer
	buf.Grow(len(src))
	var pos uint32
	for _, e := range edits {
		// Edits nested in a regenerated statement are already covered by it.
		if e.span.Start < pos {
			continue
		}
		buf.Write(src[pos:e.span.Start])
		buf.WriteString(e.text)
		pos = e.span.End
	}
	buf.Write(src[pos:])
	return buf.Bytes()
}

// FormatImport prints an import declaration from its fields.
func FormatImport(d *ImportDecl) string {
	q := byte('"')
	if d.Source != nil && (d.Source.Quote == '\'' || d.Source.Quote == '"') {
		q = d.Source.Quote
	}
	var b strings.Builder
	b.WriteString("import ")
	if d.TypeOnly {
		b.WriteString("type ")
	}
	if d.Phase == PhaseSource {
		b.WriteString("source ")
	}

	var clause []string
	if d.Default != "" {
		clause = append(clause, d.Default)
	}
	if d.Namespace != "" {
		clause = append(clause, "* as "+d.Namespace)
	}
	if len(d.Named) > 0 || d.HasNamedClause {
		names := make([]string, len(d.Named))
		for i, s := range d.Named {
			names[i] = formatSpecifier(s, q)
		}
		if len(names) == 0 {
			clause = append(clause, "{}")
		} else {
			clause = append(clause, "{ "+strings.Join(names, ", ")+" }")
		}
	}
	if len(clause) > 0 {
		b.WriteString(strings.Join(clause, ", "))
		b.WriteString(" from ")
	}
	b.WriteString(quote(d.Source.Current(), q))
	if d.Attributes != "" {
		b.WriteString(" ")
		b.WriteString(d.Attributes)
	}
	b.WriteString(";")
	return b.String()
}

func formatSpecifier(s ImportSpecifier, q byte) string {
	imported := s.Imported
	if s.ImportedIsString {
		imported = quote(s.Imported, q)
	}
	var out string
	if s.Local == "" || (s.Local == s.Imported && !s.ImportedIsString) {
		out = imported
	} else {
		out = imported + " as " + s.Local
	}
	if s.TypeOnly {
		out = "type " + out
	}
	return out
}

func quote(s string, q byte) string {
	if q != '\'' && q != '"' && q != '`' {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}
