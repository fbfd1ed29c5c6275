package sms

import (
	"strings"
	"unicode"
)

// DefaultSegmentLength is the single-segment capacity of the GSM-7
// alphabet.
const DefaultSegmentLength = 160

// Split breaks text into ordered chunks of at most maxLen code points.
// Sentences are kept whole where possible: they are packed greedily into
// chunks, an oversized sentence falls back to word boundaries, and an
// oversized word is cut at the character boundary. No content is dropped.
// Empty or whitespace-only input yields no chunks.
func Split(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultSegmentLength
	}
	if len([]rune(text)) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range splitSentences(text) {
		sentenceLen := len([]rune(sentence))

		// Joining sentences costs one space inside a chunk.
		joined := sentenceLen
		if currentLen > 0 {
			joined += currentLen + 1
		}

		switch {
		case joined <= maxLen:
			if currentLen > 0 {
				current.WriteByte(' ')
				currentLen++
			}
			current.WriteString(sentence)
			currentLen += sentenceLen
		case sentenceLen <= maxLen:
			flush()
			current.WriteString(sentence)
			currentLen = sentenceLen
		default:
			flush()
			for _, part := range splitWords(sentence, maxLen) {
				chunks = append(chunks, part)
			}
		}
	}
	flush()

	return chunks
}

// splitSentences cuts text on sentence terminators followed by
// whitespace, keeping the terminator attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// splitWords packs words into chunks of at most maxLen code points,
// cutting oversized words at the character boundary.
func splitWords(sentence string, maxLen int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(sentence) {
		wordLen := len([]rune(word))

		joined := wordLen
		if currentLen > 0 {
			joined += currentLen + 1
		}

		switch {
		case joined <= maxLen:
			if currentLen > 0 {
				current.WriteByte(' ')
				currentLen++
			}
			current.WriteString(word)
			currentLen += wordLen
		case wordLen <= maxLen:
			flush()
			current.WriteString(word)
			currentLen = wordLen
		default:
			flush()
			for _, part := range splitRunes(word, maxLen) {
				chunks = append(chunks, part)
			}
		}
	}
	flush()

	return chunks
}

func splitRunes(word string, maxLen int) []string {
	runes := []rune(word)
	var chunks []string
	for len(runes) > maxLen {
		chunks = append(chunks, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
