package pipeline

import (
	"regexp"
	"strings"
)

// Block is one delimiter-separated segment of input text. Blocks are an
// intermediate representation only; they are never persisted.
type Block struct {
	Title   string
	RawText string
}

// blockDelim matches a delimiter line: three or more dashes, optionally
// fencing an inline title as in "--- Meeting Notes ---".
var blockDelim = regexp.MustCompile(`(?m)^[ \t]*-{3,}(?:[ \t]*(.*?)[ \t]*-{3,})?[ \t]*$`)

// untitledBlock is assigned when a block carries no discernible title line.
const untitledBlock = "Untitled"

// ParseBlocks splits raw text into blocks at delimiter lines.
//
// Text before the first delimiter is discarded as preamble. Blocks with
// empty bodies are skipped. When the input contains no delimiter at all
// the whole text becomes a single block with an empty title. Block order
// follows input order.
func ParseBlocks(raw string) []Block {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	matches := blockDelim.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return []Block{{Title: "", RawText: strings.TrimSpace(raw)}}
	}

	var blocks []Block
	for i, m := range matches {
		title := ""
		if m[2] >= 0 {
			title = strings.TrimSpace(raw[m[2]:m[3]])
		}

		start := m[1]
		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(raw[start:end])
		if body == "" {
			continue
		}

		if title == "" {
			title, body = titleFromBody(body)
		}
		blocks = append(blocks, Block{Title: title, RawText: body})
	}
	return blocks
}

// fieldLine matches a "Field: value" line such as "Topic: meeting".
var fieldLine = regexp.MustCompile(`^[A-Za-z][A-Za-z _-]{0,30}:`)

// titleFromBody takes the first line of body as the title when it reads
// like one, returning the remaining body. A title line is short and is
// not a field line. Falls back to the "Untitled" sentinel with the body
// untouched.
func titleFromBody(body string) (title, rest string) {
	line, remainder, _ := strings.Cut(body, "\n")
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 100 || fieldLine.MatchString(line) {
		return untitledBlock, body
	}
	return line, strings.TrimSpace(remainder)
}
