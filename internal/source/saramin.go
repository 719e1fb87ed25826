package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
)

func init() {
	Register("saramin", newSaramin)
}

// saraminAdapter scrapes saramin.co.kr keyword search result pages.
type saraminAdapter struct {
	id       string
	baseURL  string
	keywords []string
	client   *Client
	now      func() time.Time
}

func newSaramin(cfg config.Source, client *Client) (Adapter, error) {
	if len(cfg.Keywords) == 0 {
		return nil, fmt.Errorf("source %q: saramin adapter needs keywords", cfg.ID)
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.saramin.co.kr"
	}
	return &saraminAdapter{
		id:       cfg.ID,
		baseURL:  base,
		keywords: cfg.Keywords,
		client:   client,
		now:      time.Now,
	}, nil
}

func (a *saraminAdapter) SourceID() string { return a.id }

func (a *saraminAdapter) Fetch(ctx context.Context, since *time.Time) ([]domain.Listing, error) {
	seen := map[string]bool{}
	var out []domain.Listing

	for _, kw := range a.keywords {
		q := url.Values{}
		q.Set("searchType", "search")
		q.Set("searchword", kw)
		q.Set("recruitPage", "1")
		q.Set("recruitSort", "relation")
		q.Set("recruitPageCount", "40")
		q.Set("career", "1,8") // entry level + any

		searchURL := a.baseURL + "/zf_user/search/recruit?" + q.Encode()

		doc, err := a.client.GetHTML(ctx, searchURL)
		if err != nil {
			return nil, fmt.Errorf("saramin search %q: %w", kw, err)
		}

		for _, l := range a.parseSearchPage(doc) {
			if l.ExternalID != "" && seen[l.ExternalID] {
				continue
			}
			seen[l.ExternalID] = true
			out = append(out, l)
		}
	}

	return out, nil
}

func (a *saraminAdapter) parseSearchPage(doc *goquery.Document) []domain.Listing {
	var out []domain.Listing
	now := a.now()

	doc.Find(".item_recruit").Each(func(_ int, card *goquery.Selection) {
		company := CleanText(card.Find(".corp_name a").First().Text())
		titleEl := card.Find(".job_tit a").First()
		title := CleanText(titleEl.Text())
		if company == "" || title == "" {
			return
		}

		href, _ := titleEl.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasPrefix(href, "/") {
			href = a.baseURL + href
		}
		if href == "" {
			return
		}

		var experience, location string
		card.Find(".job_condition span").Each(func(_ int, s *goquery.Selection) {
			text := CleanText(s.Text())
			if experience == "" && containsAny(text, "신입", "경력", "무관") {
				experience = text
			}
			if location == "" && containsAny(text, "서울", "경기", "부산", "대전", "대구", "인천", "광주", "재택") {
				location = text
			}
		})

		deadlineText := CleanText(card.Find(".job_date .date").First().Text())

		out = append(out, domain.Listing{
			ExternalID: extractRecIdx(href),
			Title:      title,
			Company:    company,
			Location:   location,
			URL:        href,
			Experience: experience,
			Deadline:   ParseDeadline(deadlineText, now),
		})
	})

	return out
}

var recIdxRe = regexp.MustCompile(`rec_idx=(\d+)`)

func extractRecIdx(rawURL string) string {
	if m := recIdxRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var (
	dMinusRe  = regexp.MustCompile(`D-(\d+)`)
	slashRe   = regexp.MustCompile(`~\s*(\d{1,2})/(\d{1,2})`)
	dotDateRe = regexp.MustCompile(`~\s*(\d{1,2})\.(\d{1,2})`)
)

// ParseDeadline understands the deadline shorthand Korean job boards use:
// "D-7", "~03/15", "~03.15". Open-ended postings ("상시채용") yield nil.
func ParseDeadline(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if m := dMinusRe.FindStringSubmatch(text); m != nil {
		days, _ := strconv.Atoi(m[1])
		t := now.AddDate(0, 0, days)
		return &t
	}

	monthDay := slashRe.FindStringSubmatch(text)
	if monthDay == nil {
		monthDay = dotDateRe.FindStringSubmatch(text)
	}
	if monthDay != nil {
		month, _ := strconv.Atoi(monthDay[1])
		day, _ := strconv.Atoi(monthDay[2])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return nil
		}
		t := time.Date(now.Year(), time.Month(month), day, 23, 59, 0, 0, now.Location())
		if t.Before(now) {
			t = t.AddDate(1, 0, 0) // deadline rolls into next year
		}
		return &t
	}

	return nil
}
