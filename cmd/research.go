package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryal0/secondbrain/internal/research"
)

var (
	researchUser    string
	researchIngest  bool
	researchWorkers int
)

var researchCmd = &cobra.Command{
	Use:   "research [url...]",
	Short: "Fetch and summarize web articles",
	Long: `Research fetches each URL, extracts the readable article text and
summarizes it. Summaries are printed in the order the URLs were given.
Pass --ingest to also store the combined summary in the user's
collection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchUser, "user", "", "identity owning the collection (required with --ingest)")
	researchCmd.Flags().BoolVar(&researchIngest, "ingest", false, "store the combined summary in the knowledge base")
	researchCmd.Flags().IntVar(&researchWorkers, "workers", 0, "number of concurrent fetches (default 4)")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if researchIngest && researchUser == "" {
		return fmt.Errorf("--user is required with --ingest")
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []research.Option
	if researchWorkers > 0 {
		opts = append(opts, research.WithWorkers(researchWorkers))
	}
	researcher := research.New(a.Gen, research.NewHTTPFetcher(nil), a.Logger, opts...)

	summary, err := researcher.Research(ctx, args)
	if err != nil {
		return fmt.Errorf("researching: %w", err)
	}

	fmt.Println(summary)

	if researchIngest {
		result, err := a.Engine.Ingest(ctx, researchUser, summary)
		if err != nil {
			return fmt.Errorf("ingesting research summary: %w", err)
		}
		fmt.Printf("\nStatus: %s. Total chunks stored: %d.\n", result.Status, result.TotalChunks)
	}

	return nil
}
