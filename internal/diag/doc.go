// Package diag defines the diagnostic model shared by all schema passes.
//
// Diagnostic is the central record: a Severity, a stable numeric Code, a
// message, the primary source.Span of the originating field or variant, and
// optional notes pointing at related sites (e.g. both ends of a tag
// collision).
//
// Passes emit through a Reporter so that emission is decoupled from storage.
// BagReporter collects into a Bag, which supports sorting, deduplication and
// merging. A Bag is the only state shared across type definitions in one run;
// it is append-only and bags built concurrently are merged and sorted into a
// deterministic order afterwards.
//
// Rendering lives in internal/diagfmt; this package performs no IO.
package diag
