package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeFilters(t *testing.T) {
	cfg := Config{}
	cfg.Filters.Keywords = []string{" data ", "DATA", "", "ml"}
	cfg.Sources = []Source{{ID: "a", Kind: "wanted", Enabled: true}}

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK())
	require.Equal(t, []string{"data", "ml"}, out.Filters.Keywords, "trimmed, case-insensitively deduped")
}

func TestNormalizeDefaultsPort(t *testing.T) {
	cfg := Config{Sources: []Source{{ID: "a", Kind: "wanted", Enabled: true}}}
	out, _ := NormalizeAndValidate(cfg)
	require.Equal(t, 8000, out.App.Port)

	cfg.App.Port = 70000
	out, _ = NormalizeAndValidate(cfg)
	require.Equal(t, 8000, out.App.Port)
}

func TestBadDurationIsAnError(t *testing.T) {
	cfg := Config{Sources: []Source{{ID: "a", Kind: "wanted", Enabled: true}}}
	cfg.Crawler.SourceTimeout = "five minutes"

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	require.Contains(t, res.Errors[0], "crawler.source_timeout")
}

func TestInvalidSourcesAreDisabledNotFatal(t *testing.T) {
	cfg := Config{Sources: []Source{
		{ID: "good", Kind: "wanted", Enabled: true},
		{ID: "", Kind: "wanted", Enabled: true},
		{ID: "good", Kind: "saramin", Enabled: true},     // duplicate id
		{ID: "mystery", Kind: "linkedin", Enabled: true}, // unknown kind
		{ID: "broken", Kind: "saramin", Enabled: true, FetchInterval: "often"},
	}}

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "source problems are warnings, not errors")
	require.Len(t, res.Warnings, 4)

	enabled := []string{}
	for _, s := range out.Sources {
		if s.Enabled {
			enabled = append(enabled, s.ID)
		}
	}
	require.Equal(t, []string{"good"}, enabled)
}

func TestNoEnabledSourcesWarns(t *testing.T) {
	_, res := NormalizeAndValidate(Config{})
	require.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
}

func TestParseInterval(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	sched, err := ParseInterval("30m")
	require.NoError(t, err)
	require.Equal(t, base.Add(30*time.Minute), sched.Next(base))

	sched, err = ParseInterval("@every 2h")
	require.NoError(t, err)
	require.Equal(t, base.Add(2*time.Hour), sched.Next(base))

	sched, err = ParseInterval("*/15 * * * *")
	require.NoError(t, err)
	require.Equal(t, base.Add(15*time.Minute), sched.Next(base))

	_, err = ParseInterval("-5m")
	require.Error(t, err)

	_, err = ParseInterval("often")
	require.Error(t, err)
}
