// Package fetch implements the pluggable content-fetch capability: given a
// URL, return canonicalized plain text plus transport metadata.
// HTTPFetcher's HTML-to-text pipeline is a goquery DOM walk plus
// html-to-markdown conversion, with boilerplate stripped via a selector
// list, on top of a plain net/http client - this engine fetches single
// known URLs on a schedule, it does not crawl or discover links, so a
// link-following collector would be dead weight here.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

const userAgent = "trustwatch/1.0 (+compliance change monitor)"

// HTTPFetcher fetches a live URL and canonicalizes its HTML body into plain
// text for the extractor. One instance is shared across all crawl workers;
// Fetch itself applies per-host throttling through the shared Limiter.
type HTTPFetcher struct {
	client  *http.Client
	logger  arbor.ILogger
	limiter *Limiter
}

func NewHTTPFetcher(timeout time.Duration, limiter *Limiter, logger arbor.ILogger) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		limiter: limiter,
	}
}

// Fetch implements interfaces.Fetcher. It never follows links: it reads the
// one URL it was given and returns its main-content text.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (string, interfaces.FetchMetadata, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, targetURL); err != nil {
			return "", interfaces.FetchMetadata{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", interfaces.FetchMetadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", interfaces.FetchMetadata{}, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20)) // 5MB cap, trust pages are not bulk data dumps
	if err != nil {
		return "", interfaces.FetchMetadata{}, fmt.Errorf("read body %s: %w", targetURL, err)
	}

	meta := interfaces.FetchMetadata{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now().Unix(),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", meta, fmt.Errorf("fetch %s: unexpected status %d", targetURL, resp.StatusCode)
	}
	if !strings.Contains(strings.ToLower(meta.ContentType), "html") && meta.ContentType != "" {
		// Non-HTML page (e.g. a direct PDF link used as a crawl target):
		// nothing to extract text from here, evidence discovery handles PDFs.
		return "", meta, nil
	}

	text, err := canonicalize(targetURL, body)
	if err != nil {
		return "", meta, fmt.Errorf("canonicalize %s: %w", targetURL, err)
	}
	return text, meta, nil
}

// canonicalize strips boilerplate and converts the remaining main content
// to markdown with all whitespace runs collapsed to single spaces:
// nav/header/footer/aside/script/style removed, main/article preferred
// when present.
func canonicalize(baseURL string, body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()
	doc.Find("[class*=ad], [id*=ad], [class*=promo], [class*=sidebar], [class*=cookie]").Remove()

	scope := doc.Selection
	if main := doc.Find("main, article, [role=main]").First(); main.Length() > 0 {
		scope = main
	}

	converter := md.NewConverter(baseURL, true, nil)
	html, err := goquery.OuterHtml(scope)
	if err != nil {
		return "", err
	}
	markdown, err := converter.ConvertString(html)
	if err != nil {
		// Markdown conversion is best-effort polish; fall back to raw text
		// rather than failing the whole fetch over a converter edge case.
		return collapseWhitespace(scope.Text()), nil
	}
	return collapseWhitespace(markdown), nil
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
