package extract

import "regexp"

// weakeningPairs pairs a "strong" phrasing regex with a "weak" replacement
// regex; DetectWeakening fires if the strong form appears on the old side
// and the weak form appears on the new side.
var weakeningPairs = []struct {
	strong *regexp.Regexp
	weak   *regexp.Regexp
}{
	{
		strong: regexp.MustCompile(`(?i)\b(?:do not|don't|never)\b`),
		weak:   regexp.MustCompile(`(?i)\b(?:may|might|could)\b`),
	},
	{
		strong: regexp.MustCompile(`(?i)\balways\b`),
		weak:   regexp.MustCompile(`(?i)\b(?:typically|usually|generally)\b`),
	},
	{
		strong: regexp.MustCompile(`(?i)\ball\b`),
		weak:   regexp.MustCompile(`(?i)\b(?:most|some)\b`),
	},
	{
		strong: regexp.MustCompile(`(?i)\bguarantee\b`),
		weak:   regexp.MustCompile(`(?i)\b(?:strive|aim|endeavor)\b`),
	},
}

// DetectWeakening reports whether the claim's phrasing softened between
// versions: true iff any strong/weak pair has its strong form in oldSnippet
// and its weak form in newSnippet.
func DetectWeakening(oldSnippet, newSnippet string) bool {
	for _, pair := range weakeningPairs {
		if pair.strong.MatchString(oldSnippet) && pair.weak.MatchString(newSnippet) {
			return true
		}
	}
	return false
}

// DetectNumericChange compares two claims' numeric metadata. Both return
// values are false if either side lacks a numeric value.
func DetectNumericChange(oldMeta, newMeta NumericMeta) (changed, decreased bool) {
	if oldMeta.Value == nil || newMeta.Value == nil {
		return false, false
	}
	if *oldMeta.Value == *newMeta.Value {
		return false, false
	}
	return true, *newMeta.Value < *oldMeta.Value
}

// NumericMeta is the minimal numeric-value view DetectNumericChange needs;
// callers adapt models.ExtractedMeta or models.ClaimVersion into this.
type NumericMeta struct {
	Value *float64
}
