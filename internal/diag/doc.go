// Package diag holds the diagnostic model shared by the lexer, the driver and
// the formatters.
//
// A Diagnostic has a Severity, a numeric Code (LEXnnnn for malformed tokens,
// IOnnnn for read failures, OBSnnnn for observability records), a message, a
// primary source.Span and optional notes.
//
// Producers report through a Reporter: BagReporter stores into a Bag,
// DedupReporter filters repeats in front of another Reporter. ReportError
// builds a diagnostic with notes before Emit. Rendering is internal/diagfmt's job.
package diag
