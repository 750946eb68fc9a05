// Package knowledge persists embedded chunks in PostgreSQL with pgvector
// and serves similarity search over them.
//
// Every store instance is scoped to a single collection derived from the
// owning identity; cross-identity reads or writes are impossible by
// construction. Writes support incremental append and destructive
// rebuild. Search supports top-k limits and metadata filtering through
// functional options.
package knowledge
