package fetch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

// demoDomainSuffix identifies URLs that belong to the in-process demo table
// rather than the live network.
const demoDomainSuffix = ".demo.trustwatch.local"

// DemoFetcher answers from an in-process URL->text table instead of the
// network, reshaped from table-driven test fixtures into a runtime
// adapter rather than a test helper. Used when demo mode is enabled so
// end-to-end scenarios can be driven without a live site.
type DemoFetcher struct {
	pages map[string][]string // url -> ordered sequence of page texts, one per crawl cycle
	calls map[string]int
}

func NewDemoFetcher() *DemoFetcher {
	return &DemoFetcher{
		pages: make(map[string][]string),
		calls: make(map[string]int),
	}
}

// Seed registers the ordered sequence of texts a URL returns across
// successive crawl cycles; the last text is held once the sequence is
// exhausted so later cycles keep returning steady state.
func (f *DemoFetcher) Seed(targetURL string, texts ...string) {
	f.pages[targetURL] = texts
}

func (f *DemoFetcher) Fetch(ctx context.Context, targetURL string) (string, interfaces.FetchMetadata, error) {
	texts := f.pages[targetURL]
	meta := interfaces.FetchMetadata{StatusCode: 200, ContentType: "text/html", FetchedAt: time.Now().Unix()}
	if len(texts) == 0 {
		return "", meta, nil
	}

	call := f.calls[targetURL]
	idx := call
	if idx >= len(texts) {
		idx = len(texts) - 1
	}
	f.calls[targetURL] = call + 1
	return texts[idx], meta, nil
}

// IsDemoURL reports whether a URL should be routed to the demo adapter.
func IsDemoURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Host), demoDomainSuffix)
}

// Select picks the fetch adapter: demo mode on and the URL matches the
// demo-site pattern routes to the in-process adapter, otherwise the real
// network adapter.
func Select(demoMode bool, targetURL string, demo *DemoFetcher, live *HTTPFetcher) interfaces.Fetcher {
	if demoMode && IsDemoURL(targetURL) {
		return demo
	}
	return live
}
