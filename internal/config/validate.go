package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

var knownKinds = map[string]bool{
	"wanted":     true,
	"saramin":    true,
	"inthiswork": true,
}

// NormalizeAndValidate returns a normalized copy. An invalid source never
// fails the whole config: it is disabled in the returned copy and reported
// as a warning, so the rest of the run continues without it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.Keywords = trimList(out.Filters.Keywords)
	out.Filters.ExperienceAny = trimList(out.Filters.ExperienceAny)
	out.Filters.Exclude = trimList(out.Filters.Exclude)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		out.App.Port = 8000
	}

	for _, raw := range []struct{ path, val string }{
		{"crawler.request_timeout", out.Crawler.RequestTimeout},
		{"crawler.source_timeout", out.Crawler.SourceTimeout},
		{"crawler.stale_run_after", out.Crawler.StaleRunAfter},
	} {
		if raw.val == "" {
			continue
		}
		if _, err := time.ParseDuration(raw.val); err != nil {
			res.addErr("%s: invalid duration %q", raw.path, raw.val)
		}
	}

	seenIDs := map[string]bool{}
	for i := range out.Sources {
		s := &out.Sources[i]
		s.ID = strings.TrimSpace(s.ID)
		s.Kind = strings.TrimSpace(strings.ToLower(s.Kind))

		disable := func(format string, args ...any) {
			res.addWarn("source %q disabled: %s", s.ID, fmt.Sprintf(format, args...))
			s.Enabled = false
		}

		if s.ID == "" {
			disable("missing id")
			continue
		}
		if seenIDs[s.ID] {
			disable("duplicate source id")
			continue
		}
		seenIDs[s.ID] = true

		if !knownKinds[s.Kind] {
			disable("unknown adapter kind %q", s.Kind)
			continue
		}
		if s.FetchInterval != "" {
			if _, err := ParseInterval(s.FetchInterval); err != nil {
				disable("bad fetch_interval %q: %v", s.FetchInterval, err)
				continue
			}
		}
	}

	enabled := 0
	for _, s := range out.Sources {
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		res.addWarn("no sources enabled; crawl and schedule will do nothing")
	}

	return out, res
}

// ParseInterval accepts either a Go duration ("30m") or a cron spec
// ("@hourly", "@every 2h", "*/15 * * * *") and returns a schedule that
// yields the next due time after a given instant.
func ParseInterval(raw string) (cron.Schedule, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("interval must be positive")
		}
		return cron.Every(d), nil
	}
	return cron.ParseStandard(raw)
}
