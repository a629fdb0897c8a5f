package evidence

import (
	"context"
	"net/url"
	"strings"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

// DemoPDFParser answers from an in-process table of pre-extracted text,
// mirroring fetch.DemoFetcher's role for evidence jobs in demo mode.
type DemoPDFParser struct {
	extractions map[string]*interfaces.PDFExtraction
}

var _ interfaces.PDFParser = (*DemoPDFParser)(nil)

func NewDemoPDFParser() *DemoPDFParser {
	return &DemoPDFParser{extractions: make(map[string]*interfaces.PDFExtraction)}
}

func (p *DemoPDFParser) Seed(pdfURL string, pageContent map[int]string) {
	var fullText string
	for i := 1; i <= len(pageContent); i++ {
		if i > 1 {
			fullText += "\n\n"
		}
		fullText += pageContent[i]
	}
	p.extractions[pdfURL] = &interfaces.PDFExtraction{
		FullText:    fullText,
		PageContent: pageContent,
	}
}

func (p *DemoPDFParser) Extract(ctx context.Context, pdfURL string) (*interfaces.PDFExtraction, error) {
	if ext, ok := p.extractions[pdfURL]; ok {
		return ext, nil
	}
	return &interfaces.PDFExtraction{PageContent: map[int]string{}}, nil
}

// SelectParser mirrors fetch.Select's adapter-selection rule for the PDF
// capability: demo mode plus a demo-site URL routes to the in-process
// table, otherwise the real downloader.
func SelectParser(demoMode bool, pdfURL string, demo *DemoPDFParser, real *RealPDFParser) interfaces.PDFParser {
	if demoMode && isDemoPDFURL(pdfURL) {
		return demo
	}
	return real
}

func isDemoPDFURL(pdfURL string) bool {
	u, err := url.Parse(pdfURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Host), demoPDFMarker)
}

const demoPDFMarker = ".demo.trustwatch.local"
