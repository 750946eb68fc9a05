// Package pipeline transforms raw text into embeddable chunks.
//
// The canonical flow is Summarize -> ParseBlocks -> ExtractFields ->
// Rechunk. Summarization runs once over the whole input and emits
// delimiter-separated, field-tagged text; the parser splits that text
// into titled blocks; field extraction lifts Topic/Guests/Year into
// metadata and normalizes topic labels; the chunker bounds each block's
// notes to a configured size while propagating metadata.
//
// The package has no storage dependency. Its output (Document values)
// is consumed by the knowledge store.
package pipeline
