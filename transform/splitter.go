// Package transform holds the passes run over a parsed module: the
// named-import splitter, the import/export extractor and the barrel
// collector.
package transform

import "github.com/LegacyCodeHQ/tsout/syntax"

// Splitter rewrites `import { a, b } from 'pkg'` into one import per name
// for every enrolled barrel package, so each name can be redirected to its
// defining module on its own.
type Splitter struct {
	packages map[string]bool
}

func NewSplitter(packages []string) *Splitter {
	s := &Splitter{packages: make(map[string]bool, len(packages))}
	for _, p := range packages {
		s.packages[p] = true
	}
	return s
}

// Split rewrites m in place. It reports whether any statement was split.
func (s *Splitter) Split(m *syntax.Module) bool {
	if len(s.packages) == 0 {
		return false
	}
	items := make([]syntax.Item, 0, len(m.Items))
	changed := false
	for _, it := range m.Items {
		d, ok := it.(*syntax.ImportDecl)
		if !ok || !s.splittable(d) {
			items = append(items, it)
			continue
		}
		for _, spec := range d.Named {
			items = append(items, &syntax.ImportDecl{
				Span:           d.Span,
				TypeOnly:       d.TypeOnly,
				Phase:          d.Phase,
				Named:          []syntax.ImportSpecifier{spec},
				HasNamedClause: true,
				Source: &syntax.StringLit{
					Span:  d.Source.Span,
					Value: d.Source.Value,
					Quote: d.Source.Quote,
				},
				Attributes: d.Attributes,
				Regenerate: true,
			})
		}
		changed = true
	}
	m.Items = items
	return changed
}

// splittable rejects statements with a default or namespace binding: those
// pass through whole.
func (s *Splitter) splittable(d *syntax.ImportDecl) bool {
	if d.Source == nil || !s.packages[d.Source.Value] {
		return false
	}
	if d.Phase != syntax.PhaseEvaluation || d.Default != "" || d.Namespace != "" {
		return false
	}
	return len(d.Named) > 1
}
