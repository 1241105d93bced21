package memory

import (
	"strings"
	"unicode"
)

// sentencesPerChunk is how many sentences feed one neighborhood.
const sentencesPerChunk = 3

// Tokenize case-folds text, strips punctuation except interior
// apostrophes, splits on whitespace, and drops empty tokens.
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		var b strings.Builder
		for _, r := range field {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
				b.WriteRune(r)
			}
		}
		tok := strings.Trim(b.String(), "'")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// splitSentences splits text on sentence terminators and trims the
// pieces. Terminators are dropped.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return sentences
}

// chunkText splits text into sentence groups of sentencesPerChunk and
// rejoins each group into one chunk string.
func chunkText(text string) []string {
	sentences := splitSentences(text)
	var chunks []string
	for i := 0; i < len(sentences); i += sentencesPerChunk {
		end := i + sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], ". "))
	}
	return chunks
}
