package synth

import "strings"

// TextChunk is a bounded-length group of consecutive sentences from one
// reply, tagged with its position in the reply.
type TextChunk struct {
	Index int
	Text  string
}

// SplitSentences splits text on sentence-terminal punctuation ('.', '!',
// '?') followed by whitespace or end-of-string. Punctuation stays attached
// to its sentence; empty fragments are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Terminal punctuation only ends a sentence at a whitespace
		// boundary, so "3.5 years" stays intact.
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// PackChunks greedily packs consecutive sentences into chunks of at most
// target characters, counting the single joining space. A sentence longer
// than target becomes a chunk of its own. Indices are dense starting at 0.
func PackChunks(sentences []string, target int) []TextChunk {
	var chunks []TextChunk
	var current string

	flush := func() {
		if current != "" {
			chunks = append(chunks, TextChunk{Index: len(chunks), Text: current})
			current = ""
		}
	}

	for _, sentence := range sentences {
		if sentence == "" {
			continue
		}
		candidate := len(sentence)
		if current != "" {
			candidate += len(current) + 1
		}
		if candidate <= target {
			if current != "" {
				current += " "
			}
			current += sentence
		} else {
			flush()
			current = sentence
		}
	}
	flush()

	return chunks
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
