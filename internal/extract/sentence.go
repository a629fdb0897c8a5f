package extract

import "regexp"

// sentenceBoundary splits on [.!?] followed by whitespace and a capital
// letter.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+[A-Z]`)

type sentence struct {
	Start int
	End   int
	Text  string
}

// splitSentences returns fragments of length 20-500, with their byte
// offsets into the original text.
func splitSentences(text string) []sentence {
	var sentences []sentence
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// boundary ends right before the capital letter; the sentence
		// includes the punctuation but not the next sentence's first letter.
		end := loc[0] + 1
		frag := text[start:end]
		if len(frag) >= 20 && len(frag) <= 500 {
			sentences = append(sentences, sentence{Start: start, End: end, Text: frag})
		}
		start = loc[1] - 1
	}
	if start < len(text) {
		frag := text[start:]
		if len(frag) >= 20 && len(frag) <= 500 {
			sentences = append(sentences, sentence{Start: start, End: len(text), Text: frag})
		}
	}
	return sentences
}

// containingSentence returns the sentence whose [Start,End) range covers
// index, or nil if none does.
func containingSentence(sentences []sentence, index int) *sentence {
	for i := range sentences {
		if index >= sentences[i].Start && index < sentences[i].End {
			return &sentences[i]
		}
	}
	return nil
}
