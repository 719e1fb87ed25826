package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
)

func init() {
	Register("inthiswork", newInthiswork)
}

// inthisworkAdapter scrapes inthiswork.com, a WordPress board whose post
// titles follow a "company｜position" convention.
type inthisworkAdapter struct {
	id      string
	baseURL string
	client  *Client
}

func newInthiswork(cfg config.Source, client *Client) (Adapter, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "https://inthiswork.com"
	}
	return &inthisworkAdapter{id: cfg.ID, baseURL: base, client: client}, nil
}

func (a *inthisworkAdapter) SourceID() string { return a.id }

func (a *inthisworkAdapter) Fetch(ctx context.Context, since *time.Time) ([]domain.Listing, error) {
	doc, err := a.client.GetHTML(ctx, a.baseURL+"/data")
	if err != nil {
		return nil, fmt.Errorf("inthiswork list page: %w", err)
	}
	return a.parseListPage(doc), nil
}

func (a *inthisworkAdapter) parseListPage(doc *goquery.Document) []domain.Listing {
	// archive links repeat (comment anchors, pagination); keep one per post
	seen := map[string]bool{}
	var out []domain.Listing

	doc.Find(`a[href*="/archives/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		text := CleanText(link.Text())

		href = canonicalArchiveURL(href)
		if href == "" || seen[href] {
			return
		}

		company, title, ok := splitPostTitle(text)
		if !ok {
			return
		}
		seen[href] = true

		out = append(out, domain.Listing{
			ExternalID: extractArchiveID(href),
			Title:      title,
			Company:    company,
			URL:        href,
			Experience: experienceFromTitle(title),
		})
	})

	return out
}

func canonicalArchiveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if i := strings.Index(href, "#"); i >= 0 {
		href = href[:i]
	}
	if i := strings.Index(href, "/comment-page"); i >= 0 {
		href = href[:i]
	}
	return href
}

// splitPostTitle parses the "company｜position" convention; either the
// fullwidth or the ASCII bar appears in the wild.
func splitPostTitle(text string) (company, title string, ok bool) {
	sep := "｜"
	if !strings.Contains(text, sep) {
		sep = "|"
	}
	parts := strings.SplitN(text, sep, 2)
	if len(parts) < 2 {
		return "", "", false
	}
	company = strings.TrimSpace(parts[0])
	title = strings.TrimSpace(parts[1])
	return company, title, company != "" && title != ""
}

var archiveIDRe = regexp.MustCompile(`/archives/(\d+)`)

func extractArchiveID(href string) string {
	if m := archiveIDRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

var yearsRe = regexp.MustCompile(`\d+년\s*이상`)

func experienceFromTitle(title string) string {
	switch {
	case strings.Contains(title, "인턴"):
		return "인턴"
	case strings.Contains(title, "신입"):
		return "신입"
	case strings.Contains(title, "경력무관"), strings.Contains(title, "경력 무관"):
		return "경력무관"
	}
	if m := yearsRe.FindString(title); m != "" {
		return m
	}
	return ""
}
