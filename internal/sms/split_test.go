package sms

import (
	"strings"
	"testing"
)

func TestSplitShortMessage(t *testing.T) {
	chunks := Split("We have that in stock!", 160)
	if len(chunks) != 1 || chunks[0] != "We have that in stock!" {
		t.Fatalf("expected single chunk, got %#v", chunks)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := Split("", 160); chunks != nil {
		t.Fatalf("expected no chunks for empty input, got %#v", chunks)
	}
	if chunks := Split("   \n\t ", 160); chunks != nil {
		t.Fatalf("expected no chunks for whitespace input, got %#v", chunks)
	}
}

func TestSplitKeepsSentencesWhole(t *testing.T) {
	text := "The first book is great. The second one is even better! Do you want both?"
	chunks := Split(text, 40)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %#v", len(chunks), chunks)
	}
	want := []string{
		"The first book is great.",
		"The second one is even better!",
		"Do you want both?",
	}
	for i, w := range want {
		if chunks[i] != w {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], w)
		}
	}
}

func TestSplitPacksSentencesGreedily(t *testing.T) {
	text := "Yes. No. Maybe. We will see about that one."
	chunks := Split(text, 20)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %#v", len(chunks), chunks)
	}
	if chunks[0] != "Yes. No. Maybe." {
		t.Fatalf("chunk 0 = %q", chunks[0])
	}
}

func TestSplitOversizedSentenceFallsBackToWords(t *testing.T) {
	text := "this sentence has no terminator and keeps going well past the limit"
	chunks := Split(text, 25)

	for i, c := range chunks {
		if len([]rune(c)) > 25 {
			t.Fatalf("chunk %d exceeds limit: %q", i, c)
		}
	}
	if rejoined := strings.Join(chunks, " "); rejoined != text {
		t.Fatalf("content lost: %q != %q", rejoined, text)
	}
}

func TestSplitOversizedWordHardSplits(t *testing.T) {
	word := strings.Repeat("x", 45)
	chunks := Split(word, 20)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %#v", len(chunks), chunks)
	}
	if strings.Join(chunks, "") != word {
		t.Fatalf("content lost across hard split")
	}
	for i, c := range chunks {
		if len([]rune(c)) > 20 {
			t.Fatalf("chunk %d exceeds limit: %q", i, c)
		}
	}
}

func TestSplitNeverExceedsLimit(t *testing.T) {
	text := "A fine pick! The Remains of the Day is a quiet masterpiece about duty and regret. " +
		"Ishiguro writes with remarkable restraint. Should I set a copy aside for you? " +
		"We also stock Never Let Me Go and Klara and the Sun if you want more."

	for _, maxLen := range []int{20, 50, 160} {
		for i, c := range Split(text, maxLen) {
			if got := len([]rune(c)); got > maxLen {
				t.Fatalf("maxLen %d: chunk %d has %d code points: %q", maxLen, i, got, c)
			}
			if strings.TrimSpace(c) == "" {
				t.Fatalf("maxLen %d: blank chunk at index %d", maxLen, i)
			}
		}
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	text := "First point here. Second point follows. Third point closes."
	chunks := Split(text, 25)

	rejoined := strings.Join(chunks, " ")
	if rejoined != text {
		t.Fatalf("order or content changed: %q", rejoined)
	}
}
