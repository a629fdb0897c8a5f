package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

// RealPDFParser downloads a PDF over HTTP and extracts its text with
// pdfcpu. Evidence PDFs are discovered by URL during a crawl, so there is
// no upload step: the file is downloaded straight into a temp file before
// handing off to pdfcpu's content-extraction calls.
type RealPDFParser struct {
	client  *http.Client
	logger  arbor.ILogger
	tempDir string
}

var _ interfaces.PDFParser = (*RealPDFParser)(nil)

func NewRealPDFParser(timeout time.Duration, logger arbor.ILogger) *RealPDFParser {
	tempDir := filepath.Join(os.TempDir(), "trustwatch-pdf")
	os.MkdirAll(tempDir, 0755)
	return &RealPDFParser{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		tempDir: tempDir,
	}
}

func (p *RealPDFParser) Extract(ctx context.Context, pdfURL string) (*interfaces.PDFExtraction, error) {
	content, err := p.download(ctx, pdfURL)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}

	tempFile := filepath.Join(p.tempDir, "fetch_"+uuid.New().String()+".pdf")
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("read pdf context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(p.tempDir, "pages_"+uuid.New().String())
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	pageContent := make(map[int]string, pageCount)
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		p.logger.Warn().Err(err).Str("url", pdfURL).Msg("pdf content extraction failed, returning empty pages")
	} else {
		files, _ := os.ReadDir(outDir)
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(outDir, file.Name()))
			if err != nil {
				continue
			}
			if page, ok := pageNumberFromFilename(file.Name()); ok {
				pageContent[page] = string(raw)
			}
		}
	}

	var fullText strings.Builder
	for page := 1; page <= pageCount; page++ {
		if page > 1 {
			fullText.WriteString("\n\n")
		}
		fullText.WriteString(pageContent[page])
	}

	return &interfaces.PDFExtraction{
		FullText:    fullText.String(),
		PageContent: pageContent,
	}, nil
}

func (p *RealPDFParser) download(ctx context.Context, pdfURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, pdfURL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 25<<20)) // 25MB cap on a single report
}

// pageNumberFromFilename recognizes pdfcpu's "page_N" and "Content_page_N"
// output filenames.
func pageNumberFromFilename(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, prefix := range []string{"Content_page_", "page_"} {
		if strings.HasPrefix(base, prefix) {
			if n, err := strconv.Atoi(strings.TrimPrefix(base, prefix)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
