// Package research turns a list of article URLs into a single combined
// summary suitable for ingestion into the knowledge base.
//
// Articles are fetched and summarized concurrently by a bounded worker
// pool. Results are joined by input index, not completion order, so the
// combined output is reproducible.
package research
