package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	askUser  string
	askPlain bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the stored knowledge",
	Long: `Ask retrieves the most relevant stored chunks for the question and
answers from them alone. When nothing relevant is stored the answer says
so instead of guessing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askUser, "user", "", "identity owning the collection (required)")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print the raw answer without markdown rendering")
	_ = askCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	question := strings.Join(args, " ")

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.Engine.Ask(ctx, askUser, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(renderAnswer(answer))
	return nil
}

// renderAnswer formats the answer as terminal markdown, falling back to
// plain text when rendering is unavailable.
func renderAnswer(answer string) string {
	if askPlain {
		return answer
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return answer
	}

	out, err := r.Render(answer)
	if err != nil {
		return answer
	}
	return strings.TrimRight(out, "\n")
}
