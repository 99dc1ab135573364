package usecase

import (
	"strings"
	"testing"

	"screenknow/internal/domain"
)

func TestRenderViewTruncatesLongText(t *testing.T) {
	t.Parallel()

	words := make([]string, 75)
	for i := range words {
		words[i] = "w"
	}
	long := strings.Join(words, " ")

	out := renderView([]domain.ContentBlock{domain.TextBlock(long)})
	if len(out) != 1 {
		t.Fatalf("expected one block, got %d", len(out))
	}
	if got := len(strings.Fields(out[0].Text)); got != maxRenderedWords {
		t.Fatalf("got %d words, want %d", got, maxRenderedWords)
	}
	if !strings.HasPrefix(long, out[0].Text) {
		t.Fatalf("truncation must keep the leading words")
	}
}

func TestRenderViewKeepsShortTextUnchanged(t *testing.T) {
	t.Parallel()

	text := "short answer\twith   mixed\nwhitespace"
	out := renderView([]domain.ContentBlock{domain.TextBlock(text)})
	if len(out) != 1 || out[0].Text != text {
		t.Fatalf("short text must pass through untouched, got %+v", out)
	}
}

func TestRenderViewImageSuppressesText(t *testing.T) {
	t.Parallel()

	blocks := []domain.ContentBlock{
		domain.TextBlock("hidden"),
		domain.ImageBlock("cGF5bG9hZA==", "image/png"),
		domain.TextBlock("also hidden"),
	}

	out := renderView(blocks)
	if len(out) != 1 {
		t.Fatalf("expected image-only view, got %d blocks", len(out))
	}
	if out[0].Kind != domain.BlockKindImage || out[0].Data != "cGF5bG9hZA==" {
		t.Fatalf("unexpected surviving block: %+v", out[0])
	}
	if blocks[0].Text != "hidden" {
		t.Fatalf("render must not mutate the stored sequence")
	}
}

func TestTruncateWordsBoundary(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("x ", maxRenderedWords)
	if got := truncateWords(exact, maxRenderedWords); got != exact {
		t.Fatalf("text at the limit must be unchanged")
	}
	over := exact + "y"
	want := strings.TrimSpace(exact)
	if got := truncateWords(over, maxRenderedWords); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAnswerTextJoinsTextRuns(t *testing.T) {
	t.Parallel()

	blocks := []domain.ContentBlock{
		domain.TextBlock("first"),
		domain.ImageBlock("cGF5bG9hZA==", "image/png"),
		domain.TextBlock("second"),
	}
	if got := answerText(blocks); got != "first\n\nsecond" {
		t.Fatalf("got %q", got)
	}
	if got := answerText(nil); got != "" {
		t.Fatalf("expected empty answer for no blocks, got %q", got)
	}
}
