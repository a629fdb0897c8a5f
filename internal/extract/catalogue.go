// Package extract implements a pure, deterministic claim extractor: fetched
// page text is first canonicalized from markdown to plain prose via
// goldmark, then run through a fixed regex pattern catalogue, yielding a
// deduplicated set of candidate claims with normalized keys, polarity,
// confidence, and a synthesized text snippet. The catalogue itself uses
// stdlib regexp, since no library in the stack specializes in
// compliance-text pattern matching.
package extract

import (
	"regexp"

	"github.com/ternarybob/trustwatch/internal/models"
)

// entry is one row of the pattern catalogue.
type entry struct {
	Key        string
	ClaimType  models.ClaimType
	Polarity   models.Polarity
	Confidence float64
	Pattern    *regexp.Regexp
	// NumericGroup is the 1-based regex submatch group index holding the
	// numeric value, or 0 if this entry never carries numeric metadata.
	NumericGroup int
	NumericUnit  string
}

var catalogue = []entry{
	{
		Key:        models.KeySOC2TypeII,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.95,
		Pattern:    regexp.MustCompile(`(?i)\bsoc\s*[12]\b(?:\s*type\s*(?:ii|i|2|1))?`),
	},
	{
		Key:        models.KeyISO27001,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.95,
		Pattern:    regexp.MustCompile(`(?i)\biso\s?/?\s?iec?\s?27001\b`),
	},
	{
		Key:        models.KeyISO27017,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.95,
		Pattern:    regexp.MustCompile(`(?i)\biso\s?/?\s?iec?\s?27017\b`),
	},
	{
		Key:        models.KeyISO27018,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.95,
		Pattern:    regexp.MustCompile(`(?i)\biso\s?/?\s?iec?\s?27018\b`),
	},
	{
		Key:        models.KeyHIPAA,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.9,
		Pattern:    regexp.MustCompile(`(?i)\bhipaa\b`),
	},
	{
		Key:        models.KeyGDPR,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.9,
		Pattern:    regexp.MustCompile(`(?i)\bgdpr\b`),
	},
	{
		Key:        models.KeyPCIDSS,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.9,
		Pattern:    regexp.MustCompile(`(?i)\bpci[\s-]?dss\b`),
	},
	{
		Key:        models.KeyCCPA,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.9,
		Pattern:    regexp.MustCompile(`(?i)\bccpa\b`),
	},
	{
		Key:        models.KeyFedRAMP,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.9,
		Pattern:    regexp.MustCompile(`(?i)\bfedramp\b`),
	},
	{
		Key:        models.KeyEncryption,
		ClaimType:  models.ClaimSecurity,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.85,
		Pattern:    regexp.MustCompile(`(?i)\b(aes-?(128|192|256)|tls\s?1(\.[0-3])?|ssl|encrypt(?:ed|ion)?)\b`),
	},
	{
		Key:        models.KeyDataProtection,
		ClaimType:  models.ClaimPrivacy,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.75,
		Pattern:    regexp.MustCompile(`(?i)\b(?:protect|secure|safeguard)\b[^.!?]{0,40}\b(?:your\s+)?(?:data|information|privacy)\b`),
	},
	{
		Key:        models.KeyDoNotSell,
		ClaimType:  models.ClaimPrivacy,
		Polarity:   models.PolarityNegative,
		Confidence: 0.85,
		Pattern:    regexp.MustCompile(`(?i)\b(?:do not|don't|never|will not|won't)\b[^.!?]{0,40}(?:\bsell\b|\bshare\b[^.!?]{0,20}\bthird\b)`),
	},
	{
		Key:          models.KeyUptime,
		ClaimType:    models.ClaimSLA,
		Polarity:     models.PolarityNeutral,
		Confidence:   0.9,
		Pattern:      regexp.MustCompile(`(?i)(\d{2}(?:\.\d{1,3})?)\s?%[^.!?]{0,40}\b(?:uptime|availability|sla)\b|\b(?:uptime|availability|sla)\b[^.!?]{0,40}?(\d{2}(?:\.\d{1,3})?)\s?%`),
		NumericGroup: 0, // resolved specially in findMatches (extract.go): two alternative capture groups
		NumericUnit:  "%",
	},
	{
		Key:        models.KeyBackup,
		ClaimType:  models.ClaimSecurity,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.75,
		Pattern:    regexp.MustCompile(`(?i)\b(?:backups?|redundan(?:t|cy)|replicat(?:e|ed|ion))\b`),
	},
	{
		Key:        models.KeyAudit,
		ClaimType:  models.ClaimCompliance,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.8,
		Pattern:    regexp.MustCompile(`(?i)\b(?:(?:independent|security)\s+)?audit(?:ed)?\b`),
	},
	{
		Key:        models.KeyPenetrationTesting,
		ClaimType:  models.ClaimSecurity,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.85,
		Pattern:    regexp.MustCompile(`(?i)\b(?:pen(?:etration)?|security)\s?test(?:ing)?\b`),
	},
	{
		Key:        models.KeyMFA,
		ClaimType:  models.ClaimSecurity,
		Polarity:   models.PolarityNeutral,
		Confidence: 0.9,
		Pattern:    regexp.MustCompile(`(?i)\b(?:two-factor|2fa|multi-factor|mfa)\b`),
	},
}
