package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrichment/internal/model"
	"github.com/sells-group/lead-enrichment/internal/resilience"
)

const scraperUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// hostname fragment → platform name
	socialDomains = []struct {
		domain   string
		platform string
	}{
		{"linkedin.com", "linkedin"},
		{"twitter.com", "twitter"},
		{"x.com", "twitter"},
		{"facebook.com", "facebook"},
		{"instagram.com", "instagram"},
		{"youtube.com", "youtube"},
	}
)

// ScraperAdapter extracts company signals from the lead's website: page
// title, meta description, social profiles and visible contact emails.
// A circuit breaker guards the outbound fetch: after a run of network-level
// failures the adapter fails fast instead of tying up workers on timeouts.
type ScraperAdapter struct {
	http    *http.Client
	breaker *resilience.CircuitBreaker
}

// NewScraperAdapter creates the website scraping adapter. A nil client gets
// a default with a 30s timeout.
func NewScraperAdapter(client *http.Client) *ScraperAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ScraperAdapter{
		http: client,
		breaker: resilience.NewCircuitBreaker("scraper-fetch", resilience.BreakerConfig{
			// Only network-level trouble trips the breaker. A 404 from one
			// lead's website says nothing about the next lead's.
			ShouldTrip: resilience.IsTransient,
		}),
	}
}

func (a *ScraperAdapter) Name() model.Kind {
	return model.KindScraper
}

// scrapeResult is the payload stored under the "scraper" kind.
type scrapeResult struct {
	URL         string            `json:"url"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	Emails      []string          `json:"emails"`
}

func (a *ScraperAdapter) Enrich(ctx context.Context, lead model.LeadSnapshot) Outcome {
	if lead.Website == "" {
		return Failure("website URL required for scraping")
	}

	siteURL := lead.Website
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return Failure("invalid website URL: " + err.Error())
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := resilience.ExecuteVal(ctx, a.breaker, func(context.Context) (*http.Response, error) {
		return a.http.Do(req)
	})
	if err != nil {
		if eris.Is(err, resilience.ErrCircuitOpen) {
			return Failure("scraper temporarily disabled after repeated fetch failures")
		}
		return Failure(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Failure("website returned status " + resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Failure("parse website HTML: " + err.Error())
	}

	result := scrapeResult{
		URL:         siteURL,
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		SocialLinks: extractSocialLinks(doc),
		Emails:      extractEmails(doc.Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		result.Description = strings.TrimSpace(desc)
	}

	payload, _ := json.Marshal(result)
	return Success(payload, nil)
}

func extractSocialLinks(doc *goquery.Document) map[string]string {
	links := make(map[string]string)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		for _, sd := range socialDomains {
			if strings.Contains(href, sd.domain) {
				if _, seen := links[sd.platform]; !seen {
					links[sd.platform] = href
				}
				break
			}
		}
	})
	if len(links) == 0 {
		return nil
	}
	return links
}

// extractEmails pulls up to ten distinct addresses from the page text,
// skipping obvious placeholders.
func extractEmails(text string) []string {
	seen := make(map[string]bool)
	emails := []string{}
	for _, e := range emailPattern.FindAllString(text, -1) {
		lower := strings.ToLower(e)
		if strings.Contains(lower, "example.com") ||
			strings.Contains(lower, "test.com") ||
			strings.Contains(lower, "placeholder") {
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true
		emails = append(emails, e)
		if len(emails) == 10 {
			break
		}
	}
	return emails
}
