package lexer

import "schemelex/internal/diag"

// ReporterAdapter адаптирует diag.Bag для использования в лексере
type ReporterAdapter struct {
	Bag *diag.Bag
}

// Reporter returns a diag.Reporter that forwards diagnostics to the adapter's bag,
// dropping repeats of the same diagnostic.
func (r *ReporterAdapter) Reporter() diag.Reporter {
	return diag.NewDedupReporter(diag.BagReporter{Bag: r.Bag})
}
