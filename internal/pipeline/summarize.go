package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aryal0/secondbrain/internal/llm"
	"github.com/aryal0/secondbrain/internal/log"
)

// ErrSummarization indicates the summarization model call failed or
// returned empty content after retries were exhausted.
var ErrSummarization = errors.New("summarization failed")

// summarizePrompt instructs the model to emit delimiter-separated,
// field-tagged text the parser can split. The field templates are a
// correctness contract: named facts must survive summarization, and the
// Topic and Guests fields may carry multiple comma-separated values.
const summarizePrompt = `You are a summarizing assistant. When given a document, your job is to extract and translate the information into clear, simple language for use in a Retrieval-Augmented Generation (RAG) system.

Your output must be structured and useful for downstream querying.

Rules:
- Do NOT invent facts or leave out important information.
- Use plain language that is easy for a non-technical person to understand.
- Include all relevant details.
- Follow the correct format based on document type.
- Metadata fields like Topic and Guests can include multiple comma-separated values.
- Separate each section with a line of three dashes, putting the section title inside the dashes, like: --- Section Title ---

If the document is related to Tech Start UCalgary (a student startup incubator), use this format:

Topic: (choose one or more from: sponsorship, meeting, club history, executives, misc)
Guests: (list the names of any companies or individuals mentioned)
Year: (if a specific year is mentioned, include it here)
Notes: (summarize the content clearly and completely)

If the document is related to school or academics, use this format:

Topic: (name of the subject, e.g., CPSC 355, history, philosophy)
Year: (if mentioned, include it here)
Notes: (summarize all important academic concepts, topics, or facts mentioned)

If you're unsure which category it falls into, take your best guess based on the content.

If the document is related to general queries (researched topics, random items, etc.) that don't fall into one of the prior categories, use this format:

Topic: Researched Items, and then whatever the topic is, include both
Notes: Word for word whatever has been passed down to you.

Here is the document text:
%s`

// Summarizer produces the structured, field-tagged rendition of raw text
// that feeds the block parser. One model call per input document.
type Summarizer struct {
	gen    llm.TextGenerator
	logger log.Logger
}

// NewSummarizer creates a Summarizer over the given generator.
func NewSummarizer(gen llm.TextGenerator, logger log.Logger) *Summarizer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Summarizer{gen: gen, logger: logger}
}

// Summarize returns the structured rendition of text. The output's field
// shape is stable across calls even though the exact wording is not.
// Failures after the generator's retry budget surface as ErrSummarization.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty input", ErrSummarization)
	}

	out, err := s.gen.Generate(ctx, fmt.Sprintf(summarizePrompt, text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarization, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty model output", ErrSummarization)
	}

	s.logger.Debug("summarized text", "input_len", len(text), "output_len", len(out))
	return out, nil
}
