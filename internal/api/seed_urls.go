package api

import (
	"strings"

	"github.com/ternarybob/trustwatch/internal/models"
)

// seedPaths is the category -> path-suffix table.
var seedPaths = map[models.Category][]string{
	models.CategorySecurity: {"/security", "/trust", "/compliance"},
	models.CategoryPrivacy:  {"/privacy", "/terms"},
	models.CategorySLA:      {"/sla", "/status"},
	models.CategoryPricing:  {"/pricing"},
}

// deriveSeedURLs builds the initial CrawlTarget URL set for a newly created
// Company. Host is https://{domain} unless domain already looks like a
// full URL, in which case it is used verbatim as the base.
func deriveSeedURLs(domain string, categories []models.Category) []string {
	base := domainBase(domain)

	seen := make(map[string]bool)
	var urls []string
	for _, category := range categories {
		for _, path := range seedPaths[category] {
			u := base + path
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	return urls
}

func domainBase(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return strings.TrimRight(domain, "/")
	}
	return "https://" + strings.TrimRight(domain, "/")
}
