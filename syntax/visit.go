package syntax

import "sort"

// Visitor receives the module-level forms of a Module in source order.
type Visitor interface {
	VisitImportDecl(d *ImportDecl)
	VisitExportNamed(e *ExportNamed)
	VisitExportAll(e *ExportAll)
	VisitExportDecl(e *ExportDecl)
	VisitExportDefault(e *ExportDefault)
	VisitUnsupported(u *Unsupported)
	VisitStmt(s *Stmt)
	VisitDynamicImport(d *DynamicImport)
	VisitImportMeta(m *ImportMeta)
}

// BaseVisitor implements Visitor with no-ops. Embed it to handle only the
// forms a pass cares about.
type BaseVisitor struct{}

func (BaseVisitor) VisitImportDecl(*ImportDecl)       {}
func (BaseVisitor) VisitExportNamed(*ExportNamed)     {}
func (BaseVisitor) VisitExportAll(*ExportAll)         {}
func (BaseVisitor) VisitExportDecl(*ExportDecl)       {}
func (BaseVisitor) VisitExportDefault(*ExportDefault) {}
func (BaseVisitor) VisitUnsupported(*Unsupported)     {}
func (BaseVisitor) VisitStmt(*Stmt)                   {}
func (BaseVisitor) VisitDynamicImport(*DynamicImport) {}
func (BaseVisitor) VisitImportMeta(*ImportMeta)       {}

// Walk visits every item, dynamic import and import.meta of m ordered by
// start offset. Items come before the expressions nested in them.
func Walk(m *Module, v Visitor) {
	type event struct {
		start uint32
		rank  int
		visit func()
	}
	events := make([]event, 0, len(m.Items)+len(m.DynamicImports)+len(m.ImportMetas))
	for _, it := range m.Items {
		events = append(events, event{it.ItemSpan().Start, 0, func() { it.accept(v) }})
	}
	for _, d := range m.DynamicImports {
		events = append(events, event{d.Span.Start, 1, func() { v.VisitDynamicImport(d) }})
	}
	for _, im := range m.ImportMetas {
		events = append(events, event{im.Span.Start, 1, func() { v.VisitImportMeta(im) }})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].start != events[j].start {
			return events[i].start < events[j].start
		}
		return events[i].rank < events[j].rank
	})
	for _, e := range events {
		e.visit()
	}
}
