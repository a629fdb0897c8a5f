package interfaces

import "context"

// PDFExtraction is the raw output of parsing a PDF: full text plus a
// per-page content map, ahead of the deterministic field-extraction pass.
type PDFExtraction struct {
	FullText    string
	PageContent map[int]string
}

// PDFParser is the pluggable PDF-parsing capability. Different backends
// (pdfcpu, a remote OCR service) can implement it interchangeably.
type PDFParser interface {
	Extract(ctx context.Context, pdfURL string) (*PDFExtraction, error)
}
