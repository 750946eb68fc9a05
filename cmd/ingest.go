package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aryal0/secondbrain/internal/brain"
)

var (
	ingestUser    string
	ingestRebuild bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Summarize a document and store it in the knowledge base",
	Long: `Ingest reads a document from the given file, or from stdin when no
file is provided, runs it through the summarization pipeline and stores
the resulting chunks in the user's collection.

Ingestion is additive: repeated runs accumulate knowledge. Pass
--rebuild to replace the collection with this document alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "identity owning the collection (required)")
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "replace the collection instead of appending")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	text, source, err := readIngestInput(args)
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []brain.IngestOption{}
	if ingestRebuild {
		opts = append(opts, brain.WithRebuild())
	}
	if source != "" {
		opts = append(opts, brain.WithSourceFile(source))
	}

	result, err := a.Engine.Ingest(ctx, ingestUser, text, opts...)
	if err != nil {
		return fmt.Errorf("ingesting document: %w", err)
	}

	fmt.Printf("Status: %s. Total chunks stored: %d.\n", result.Status, result.TotalChunks)
	return nil
}

// readIngestInput returns the document text and the source file name, which
// is empty when reading from stdin.
func readIngestInput(args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), filepath.Base(args[0]), nil
}
