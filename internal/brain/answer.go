package brain

import (
	"fmt"
	"strings"

	"github.com/aryal0/secondbrain/internal/knowledge"
)

// noContextMessage is the user-facing reply when retrieval produces
// nothing usable. Reaching it is normal operation, not an error.
const noContextMessage = "I don't have enough information to answer that question based on the available documents."

// answerPrompt instructs the model to answer strictly from the supplied
// context. Grounding is a prompt-level contract: the engine cannot
// verify that the model stayed inside the context.
const answerPrompt = `You are an AI assistant answering questions based on the provided context.

Use the following context to answer the question. If the answer is not clearly available in the context, say "` + noContextMessage + `"

Context:
%s

Question: %s

Answer:`

// formatDocs renders retrieved chunks as numbered context blocks carrying
// their title and source identifier.
func formatDocs(results []knowledge.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		title := r.Document.Metadata["title"]
		if title == "" {
			title = "Unknown"
		}
		source := r.Document.Metadata["source_file"]
		if source == "" {
			source = "Unknown"
		}
		blocks[i] = fmt.Sprintf("Document %d (Source: %s):\nTitle: %s\nContent: %s",
			i+1, source, title, r.Document.Content)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
