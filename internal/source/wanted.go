package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
)

func init() {
	Register("wanted", newWanted)
}

// wantedAdapter reads the wanted.co.kr v4 jobs API per configured job
// category. The API exposes no "since" parameter; dedup absorbs re-reads.
type wantedAdapter struct {
	id         string
	baseURL    string
	categories []int
	pageSize   int
	client     *Client
}

func newWanted(cfg config.Source, client *Client) (Adapter, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("source %q: wanted adapter needs categories", cfg.ID)
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.wanted.co.kr"
	}
	size := cfg.PageSize
	if size <= 0 || size > 100 {
		size = 100
	}
	return &wantedAdapter{
		id:         cfg.ID,
		baseURL:    base,
		categories: cfg.Categories,
		pageSize:   size,
		client:     client,
	}, nil
}

func (a *wantedAdapter) SourceID() string { return a.id }

type wantedResponse struct {
	Data []struct {
		ID      int64 `json:"id"`
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
		Position string `json:"position"`
		Address  struct {
			FullLocation string `json:"full_location"`
			Location     string `json:"location"`
		} `json:"address"`
		Years int `json:"annual_from"`
	} `json:"data"`
}

func (a *wantedAdapter) Fetch(ctx context.Context, since *time.Time) ([]domain.Listing, error) {
	seen := map[string]bool{}
	var out []domain.Listing

	for _, cat := range a.categories {
		q := url.Values{}
		q.Set("country", "kr")
		q.Set("job_sort", "job.latest_order")
		q.Set("locations", "all")
		q.Set("years", "0,1,2,3")
		q.Set("limit", strconv.Itoa(a.pageSize))
		q.Set("offset", "0")
		q.Set("tag_type_ids", strconv.Itoa(cat))

		apiURL := a.baseURL + "/api/v4/jobs?" + q.Encode()

		var resp wantedResponse
		if err := a.client.GetJSON(ctx, apiURL, &resp); err != nil {
			return nil, fmt.Errorf("wanted category %d: %w", cat, err)
		}

		for _, j := range resp.Data {
			if j.ID == 0 || j.Position == "" {
				continue
			}
			extID := strconv.FormatInt(j.ID, 10)
			if seen[extID] {
				continue // a posting can sit in several categories
			}
			seen[extID] = true

			loc := j.Address.FullLocation
			if loc == "" {
				loc = j.Address.Location
			}

			out = append(out, domain.Listing{
				ExternalID: extID,
				Title:      CleanText(j.Position),
				Company:    CleanText(j.Company.Name),
				Location:   CleanText(loc),
				URL:        fmt.Sprintf("%s/wd/%s", a.baseURL, extID),
				Experience: experienceFromYears(j.Years),
			})
		}
	}

	return out, nil
}

func experienceFromYears(years int) string {
	switch {
	case years < 0:
		return "경력무관"
	case years == 0:
		return "신입"
	default:
		return fmt.Sprintf("%d년 이상", years)
	}
}
