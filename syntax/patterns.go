package syntax

import sitter "github.com/smacker/go-tree-sitter"

// bindingNames collects the identifiers a declaration pattern introduces.
type bindingNames struct {
	names []string
	// skippedRest counts `...rest` elements of object patterns, which are not
	// recorded.
	skippedRest int
}

func (b *bindingNames) collect(l *lowering, n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		b.names = append(b.names, l.text(n))
	case "object_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "pair_pattern":
				b.collect(l, c.ChildByFieldName("value"))
			case "object_assignment_pattern":
				b.collect(l, c.ChildByFieldName("left"))
			case "rest_pattern":
				b.skippedRest++
			default:
				b.collect(l, c)
			}
		}
	case "array_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.collect(l, n.NamedChild(i))
		}
	case "assignment_pattern":
		b.collect(l, n.ChildByFieldName("left"))
	case "rest_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.collect(l, n.NamedChild(i))
		}
	}
}
