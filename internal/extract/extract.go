package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/trustwatch/internal/models"
)

// Claim is one deduplicated extracted claim candidate.
type Claim struct {
	ClaimType     models.ClaimType
	NormalizedKey string
	Polarity      models.Polarity
	Snippet       string
	Confidence    float64
	SourceURL     string
	Meta          models.ExtractedMeta
}

const snippetWindow = 150

var whitespaceRun = regexp.MustCompile(`\s+`)

// Document runs the full pattern catalogue over text and returns one
// deduplicated claim per normalized key, keeping the highest-confidence
// match when a key fires more than once.
func Document(text, sourceURL string) []Claim {
	text = canonicalizeMarkdown(text)
	sentences := splitSentences(text)
	best := make(map[string]Claim)

	for _, e := range catalogue {
		for _, m := range findMatches(e, text) {
			if existing, ok := best[e.Key]; ok && existing.Confidence >= m.confidence {
				continue
			}
			snippet := synthesizeSnippet(text, sentences, m.index, m.length)
			best[e.Key] = Claim{
				ClaimType:     e.ClaimType,
				NormalizedKey: e.Key,
				Polarity:      e.Polarity,
				Snippet:       snippet,
				Confidence:    m.confidence,
				SourceURL:     sourceURL,
				Meta:          m.meta,
			}
		}
	}

	claims := make([]Claim, 0, len(best))
	for _, c := range best {
		claims = append(claims, c)
	}
	return claims
}

type match struct {
	index      int
	length     int
	confidence float64
	meta       models.ExtractedMeta
}

// findMatches runs one catalogue entry's pattern over the full document,
// special-casing UPTIME's two alternative numeric capture groups.
func findMatches(e entry, text string) []match {
	var out []match

	if e.Key == models.KeyUptime {
		for _, loc := range e.Pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			var valueStr string
			// group 1 (leading-number alt) then group 2 (trailing-number alt).
			if loc[2] >= 0 {
				valueStr = text[loc[2]:loc[3]]
			} else if len(loc) > 4 && loc[4] >= 0 {
				valueStr = text[loc[4]:loc[5]]
			}
			meta := models.ExtractedMeta{}
			if valueStr != "" {
				if v, err := strconv.ParseFloat(valueStr, 64); err == nil {
					meta.NumericValue = &v
					meta.NumericUnit = e.NumericUnit
				}
			}
			out = append(out, match{index: start, length: end - start, confidence: e.Confidence, meta: meta})
		}
		return out
	}

	for _, loc := range e.Pattern.FindAllStringIndex(text, -1) {
		out = append(out, match{index: loc[0], length: loc[1] - loc[0], confidence: e.Confidence})
	}
	return out
}

// synthesizeSnippet builds the ±150-char window around a match, preferring
// the containing sentence when it is shorter, collapsing whitespace, and
// trimming to the next sentence boundary within the last 50 characters
// where one exists.
func synthesizeSnippet(text string, sentences []sentence, index, length int) string {
	lo := index - snippetWindow
	if lo < 0 {
		lo = 0
	}
	hi := index + length + snippetWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]

	if s := containingSentence(sentences, index); s != nil && len(s.Text) < len(window) {
		window = s.Text
	}

	window = collapseWhitespace(window)
	return trimToSentenceBoundary(window)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// trimToSentenceBoundary truncates s at the last [.!?] found within its
// final 50 characters, if one exists; otherwise s is returned unchanged.
func trimToSentenceBoundary(s string) string {
	if len(s) <= 50 {
		return s
	}
	tail := s[len(s)-50:]
	idx := strings.LastIndexAny(tail, ".!?")
	if idx < 0 {
		return s
	}
	cut := len(s) - 50 + idx + 1
	return strings.TrimSpace(s[:cut])
}
