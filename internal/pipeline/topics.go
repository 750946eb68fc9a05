package pipeline

import "strings"

// TopicMisc is the fallback label for unrecognized topics.
const TopicMisc = "misc"

// researchedPrefix marks the general two-part topic "Researched Items, <subtopic>".
const researchedPrefix = "researched items"

// knownTopics is the closed set of canonical topic labels. Organizational
// labels come first, followed by the academic subset.
var knownTopics = map[string]bool{
	"sponsorship":  true,
	"meeting":      true,
	"club_history": true,
	"executives":   true,
	TopicMisc:      true,
	"cs":           true,
	"geology":      true,
	"sociology":    true,
	"personal":     true,
}

// NormalizeTopic maps a raw topic label to its canonical form. Casing,
// surrounding space, and space/hyphen separators are normalized, so
// "Club History", "club-history" and "CLUB_HISTORY" all map to
// "club_history". "Researched Items, <subtopic>" keeps its subtopic with
// canonical prefix casing. Anything unrecognized maps to "misc".
// The mapping is idempotent.
func NormalizeTopic(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TopicMisc
	}

	if sub, ok := researchedSubtopic(trimmed); ok {
		if sub == "" {
			return TopicMisc
		}
		return "Researched Items, " + sub
	}

	canon := strings.ToLower(trimmed)
	canon = strings.ReplaceAll(canon, "-", " ")
	canon = strings.Join(strings.Fields(canon), "_")
	if knownTopics[canon] {
		return canon
	}
	return TopicMisc
}

// NormalizeTopicList normalizes a comma-separated multi-value topic field,
// deduplicating while preserving first-seen order. The two-part
// "Researched Items, <subtopic>" form is treated as a single value.
func NormalizeTopicList(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TopicMisc
	}
	if _, ok := researchedSubtopic(trimmed); ok {
		return NormalizeTopic(trimmed)
	}

	seen := make(map[string]bool)
	var out []string
	for part := range strings.SplitSeq(trimmed, ",") {
		label := NormalizeTopic(part)
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return strings.Join(out, ",")
}

func researchedSubtopic(s string) (string, bool) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, researchedPrefix) {
		return "", false
	}
	rest := strings.TrimSpace(s[len(researchedPrefix):])
	rest = strings.TrimSpace(strings.TrimLeft(rest, ",-:"))
	return rest, true
}
