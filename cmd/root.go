package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "secondbrain",
	Short: "Secondbrain is a personal knowledge base with AI-powered recall",
	Long: `Secondbrain ingests raw notes and documents into a searchable
knowledge base, one collection per identity. Documents are summarized,
split into titled blocks, chunked and embedded into PostgreSQL with
pgvector. Questions are answered from the stored chunks only.

Common usage:

  secondbrain ingest notes.txt --user alice
  secondbrain ask --user alice "how much did Acme offer?"
  secondbrain research --user alice https://example.com/article
  secondbrain mcp`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
