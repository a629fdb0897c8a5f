// Package evidence implements the PDF evidence sub-pipeline: parsing a
// discovered PDF and extracting a deterministic set of fields from its
// text, then persisting them onto the Evidence row.
package evidence

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	reportTypePattern = regexp.MustCompile(`(?i)SOC\s*2\s*Type\s*(I{1,2})\b|ISO\s*27001\b|HIPAA\b`)
	auditorPattern    = regexp.MustCompile(`(?i)(?:auditor|audited by|performed by)\s*:?\s*([A-Z][A-Za-z&.,\s]{1,60}?(?:\s+(?:LLP|LLC|Inc\.?))?)\b`)
	scopePattern      = regexp.MustCompile(`(?i)(?:scope|covered services)\s*:?\s*(.{20,200})`)
	periodPattern     = regexp.MustCompile(`(?i)period[^.\n]{0,40}?([A-Za-z]+\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2})\s*(?:to|through|-)\s*([A-Za-z]+\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2})`)
)

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// Fields is the deterministic extraction result applied to evidence text.
type Fields struct {
	ReportType  string
	Auditor     string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Scope       string
	PageContent map[int]string
	PageNumbers []int
}

// Extract applies the field extractor to a PDF's full text and per-page
// content. It never returns an error: a field simply stays empty when no
// match is found, matching "first match of ..." semantics that tolerate
// absence.
func Extract(fullText string, pageContent map[int]string) Fields {
	f := Fields{
		PageContent: pageContent,
	}

	if m := reportTypePattern.FindString(fullText); m != "" {
		f.ReportType = normalizeReportType(m)
	}

	if m := auditorPattern.FindStringSubmatch(fullText); len(m) > 1 {
		f.Auditor = strings.TrimSpace(m[1])
	}

	if m := scopePattern.FindStringSubmatch(fullText); len(m) > 1 {
		f.Scope = strings.TrimSpace(m[1])
	}

	if m := periodPattern.FindStringSubmatch(fullText); len(m) > 2 {
		if start, ok := parseDate(m[1]); ok {
			f.PeriodStart = &start
		}
		if end, ok := parseDate(m[2]); ok {
			f.PeriodEnd = &end
		}
	}

	pageNumbers := make([]int, 0, len(pageContent))
	for page := range pageContent {
		pageNumbers = append(pageNumbers, page)
	}
	sort.Ints(pageNumbers)
	f.PageNumbers = pageNumbers

	return f
}

func normalizeReportType(raw string) string {
	upper := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	switch {
	case strings.Contains(upper, "SOC 2 TYPE II") || strings.Contains(upper, "SOC2 TYPE II"):
		return "SOC 2 Type II"
	case strings.Contains(upper, "SOC 2 TYPE I") || strings.Contains(upper, "SOC2 TYPE I"):
		return "SOC 2 Type I"
	case strings.Contains(upper, "ISO 27001"):
		return "ISO 27001"
	case strings.Contains(upper, "HIPAA"):
		return "HIPAA"
	default:
		return raw
	}
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
