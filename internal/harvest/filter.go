package harvest

import (
	"strings"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
)

// Filter decides which fetched listings are worth keeping. Exclusions win,
// then a listing must hit at least one keyword, then its experience text
// (when present) must match one of the accepted levels.
type Filter struct {
	keywords   []string
	experience []string
	exclude    []string
}

func NewFilter(cfg config.Filters) Filter {
	return Filter{
		keywords:   lowerAll(cfg.Keywords),
		experience: lowerAll(cfg.ExperienceAny),
		exclude:    lowerAll(cfg.Exclude),
	}
}

// Keep reports whether the listing passes, with a short reason when not.
func (f Filter) Keep(l domain.Listing) (keep bool, reason string) {
	title := strings.ToLower(l.Title)

	for _, ex := range f.exclude {
		if strings.Contains(title, ex) {
			return false, "excluded"
		}
	}

	if len(f.keywords) > 0 {
		text := strings.ToLower(l.Title + " " + l.Description)
		matched := false
		for _, kw := range f.keywords {
			if strings.Contains(text, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return false, "no_keyword_match"
		}
	}

	if len(f.experience) > 0 && l.Experience != "" {
		exp := strings.ToLower(l.Experience)
		for _, e := range f.experience {
			if strings.Contains(exp, e) {
				return true, ""
			}
		}
		return false, "experience"
	}

	return true, ""
}

func lowerAll(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
