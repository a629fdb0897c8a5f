package fetch

import (
	"context"
	"testing"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

func TestDemoFetcher_SeedSequenceHoldsLastValue(t *testing.T) {
	f := NewDemoFetcher()
	f.Seed("https://vendor.demo.trustwatch.local/security", "first", "second")

	ctx := context.Background()

	text, _, err := f.Fetch(ctx, "https://vendor.demo.trustwatch.local/security")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "first" {
		t.Fatalf("expected first cycle text, got %q", text)
	}

	text, _, _ = f.Fetch(ctx, "https://vendor.demo.trustwatch.local/security")
	if text != "second" {
		t.Fatalf("expected second cycle text, got %q", text)
	}

	text, _, _ = f.Fetch(ctx, "https://vendor.demo.trustwatch.local/security")
	if text != "second" {
		t.Fatalf("expected sequence to hold at last value, got %q", text)
	}
}

func TestIsDemoURL(t *testing.T) {
	cases := map[string]bool{
		"https://vendor.demo.trustwatch.local/security": true,
		"https://vendor.com/security":                   false,
		"not a url":                                      false,
	}
	for u, want := range cases {
		if got := IsDemoURL(u); got != want {
			t.Errorf("IsDemoURL(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestSelect_RoutesByDemoModeAndURL(t *testing.T) {
	demo := NewDemoFetcher()
	live := NewHTTPFetcher(0, nil, nil)

	if got := Select(true, "https://vendor.demo.trustwatch.local/security", demo, live); got != interfaces.Fetcher(demo) {
		t.Error("expected demo adapter when demo mode on and URL matches")
	}
	if got := Select(true, "https://vendor.com/security", demo, live); got != interfaces.Fetcher(live) {
		t.Error("expected live adapter when URL does not match demo pattern")
	}
	if got := Select(false, "https://vendor.demo.trustwatch.local/security", demo, live); got != interfaces.Fetcher(live) {
		t.Error("expected live adapter when demo mode off")
	}
}
