package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/aryal0/secondbrain/internal/llm"
	"github.com/aryal0/secondbrain/internal/log"
	"github.com/aryal0/secondbrain/internal/pipeline"
)

// classifyPrompt maps a free-text question onto the closed topic set so
// retrieval can be narrowed with a metadata filter.
const classifyPrompt = `Your job is to determine what category this text may be related to. Use broader terms instead of the nichest categorization. Here are the possible options.
Possible Categories: sponsorship, meeting, executives, misc, club_history

No other possible categories. If the text asks about money assume it is related to sponsorship,
if the text asks about anything related to meetings assume it is about meeting. If anything else assume it is misc.

DO NOT ADD ANYTHING TO YOUR RESPONSE BUT THE CATEGORY. NO GREETING NO NOTHING. JUST THE ANSWER.

%s`

// Classifier performs single-shot topic classification of queries.
type Classifier struct {
	gen    llm.TextGenerator
	logger log.Logger
}

// NewClassifier creates a Classifier over the given generator.
func NewClassifier(gen llm.TextGenerator, logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Classifier{gen: gen, logger: logger}
}

// Classify returns the canonical topic label for text, or an empty label
// when the model's answer falls outside the known set. An empty label
// means "no filter"; callers must never turn it into a zero-result
// filter. Model failures surface as ErrClassification.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	raw, err := c.gen.Generate(ctx, fmt.Sprintf(classifyPrompt, text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassification, err)
	}

	trimmed := strings.TrimSpace(raw)
	canon := pipeline.NormalizeTopic(trimmed)
	if canon == pipeline.TopicMisc && !strings.EqualFold(trimmed, "misc") {
		// Out-of-set label. Degrade to unfiltered retrieval instead of
		// filtering on a coerced value.
		c.logger.Debug("classifier returned unknown label", "label", trimmed)
		return "", nil
	}

	c.logger.Debug("classified query", "topic", canon)
	return canon, nil
}
