package transform

import "github.com/LegacyCodeHQ/tsout/syntax"

// localImport is where an imported binding comes from. original is "default"
// for default imports and "*" for namespace imports.
type localImport struct {
	source   string
	original string
}

// importedLocals maps every runtime binding introduced by an import
// statement of m to its source.
func importedLocals(m *syntax.Module) map[string]localImport {
	locals := make(map[string]localImport)
	for _, it := range m.Items {
		d, ok := it.(*syntax.ImportDecl)
		if !ok || d.Source == nil || d.TypeOnly {
			continue
		}
		src := d.Source.Value
		if d.Default != "" {
			locals[d.Default] = localImport{source: src, original: "default"}
		}
		if d.Namespace != "" {
			locals[d.Namespace] = localImport{source: src, original: "*"}
		}
		for _, s := range d.Named {
			if s.TypeOnly {
				continue
			}
			locals[s.Local] = localImport{source: src, original: s.Imported}
		}
	}
	return locals
}
