package usecase

import (
	"strings"

	"screenknow/internal/domain"
)

// maxRenderedWords caps how much answer text the view shows.
const maxRenderedWords = 60

// renderView projects the stored block sequence into what the UI
// displays. When any image block is present, text blocks are suppressed
// from the view; rendered text is capped at maxRenderedWords
// whitespace-delimited words. The stored sequence is never mutated.
func renderView(blocks []domain.ContentBlock) []domain.ContentBlock {
	hasImage := false
	for _, block := range blocks {
		if block.Kind == domain.BlockKindImage {
			hasImage = true
			break
		}
	}

	out := make([]domain.ContentBlock, 0, len(blocks))
	for _, block := range blocks {
		switch block.Kind {
		case domain.BlockKindText:
			if hasImage {
				continue
			}
			out = append(out, domain.TextBlock(truncateWords(block.Text, maxRenderedWords)))
		default:
			out = append(out, block)
		}
	}
	return out
}

// truncateWords keeps the first limit whitespace-delimited words. Text
// at or under the limit is returned unchanged.
func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}

// answerText joins the stored text runs for clipboard handoff.
func answerText(blocks []domain.ContentBlock) string {
	var runs []string
	for _, block := range blocks {
		if block.Kind == domain.BlockKindText && block.Text != "" {
			runs = append(runs, block.Text)
		}
	}
	return strings.Join(runs, "\n\n")
}
