// Package brain exposes the two call surfaces of the second brain:
// Ingest, which runs raw text through the summarize/parse/chunk pipeline
// into an identity's knowledge collection, and Ask, which answers a
// question from that collection through retrieval-augmented generation.
//
// The engine owns a per-identity session cache. Writes to the same
// identity are serialized with an in-process mutex plus a file lock, so
// concurrent ingests from separate processes cannot interleave.
package brain
