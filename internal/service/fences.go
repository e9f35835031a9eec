package service

import "strings"

// fencedBlock is one triple-backtick code block from a model reply.
type fencedBlock struct {
	Lang string
	Body string
}

// parseFencedBlocks splits a model reply into its fenced code blocks, in
// order of appearance, and the prose that remains once the blocks are
// removed. An unterminated fence swallows the rest of the text as its body.
// The positional convention downstream is first block = secure example,
// second block = insecure example; further blocks are kept in the list but
// ignored by callers.
func parseFencedBlocks(text string) ([]fencedBlock, string) {
	var blocks []fencedBlock
	var prose []string

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			prose = append(prose, lines[i])
			i++
			continue
		}

		lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		var body []string
		i++
		for i < len(lines) {
			if strings.TrimSpace(lines[i]) == "```" {
				i++
				break
			}
			body = append(body, lines[i])
			i++
		}
		blocks = append(blocks, fencedBlock{
			Lang: lang,
			Body: strings.TrimSpace(strings.Join(body, "\n")),
		})
	}

	return blocks, collapseProse(prose)
}

func collapseProse(lines []string) string {
	var out []string
	blank := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// stripJSONFence unwraps a reply of the form ```json {...} ``` down to the
// bare object. Replies without a fence pass through unchanged.
func stripJSONFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		if first == "json" || first == "" {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
