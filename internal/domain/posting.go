package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Listing is what a source adapter hands back: one job posting as seen
// upstream, before dedup or persistence.
type Listing struct {
	ExternalID  string // upstream posting id; may be empty for sources without one
	Title       string
	Company     string
	Location    string
	URL         string
	Experience  string // raw requirement text ("신입", "3년 이상", "entry level", ...)
	Description string
	PostedAt    *time.Time
	Deadline    *time.Time
}

// Posting is a persisted, deduplicated job posting. Created on first
// sighting; only FetchedAt changes when the same listing is seen again.
type Posting struct {
	ID          int64      `json:"id"`
	IdentityKey string     `json:"identityKey"`
	SourceID    string     `json:"sourceId"`
	ExternalID  string     `json:"externalId,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	URL         string     `json:"url"`
	Experience  string     `json:"experience,omitempty"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	FirstSeenAt time.Time  `json:"firstSeenAt"`
	FetchedAt   time.Time  `json:"fetchedAt"`
	ContentHash string     `json:"contentHash"`
}

// ContentHash fingerprints the fields that make a listing "the same job".
// Volatile fields (deadline countdowns, fetch times) stay out on purpose.
func ContentHash(sourceID string, l Listing) string {
	h := sha256.New()
	for _, part := range []string{sourceID, l.Company, l.Title, l.Location, l.URL} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IdentityKey is the dedup key: source-scoped external id when the source
// provides one, content hash otherwise.
func IdentityKey(sourceID, externalID, contentHash string) string {
	if externalID != "" {
		return sourceID + ":" + externalID
	}
	return "h:" + contentHash
}

// NewPosting builds the persistable record for a listing first seen at now.
func NewPosting(sourceID string, l Listing, now time.Time) Posting {
	hash := ContentHash(sourceID, l)
	return Posting{
		IdentityKey: IdentityKey(sourceID, l.ExternalID, hash),
		SourceID:    sourceID,
		ExternalID:  l.ExternalID,
		Title:       l.Title,
		Company:     l.Company,
		Location:    l.Location,
		URL:         l.URL,
		Experience:  l.Experience,
		PostedAt:    l.PostedAt,
		Deadline:    l.Deadline,
		FirstSeenAt: now,
		FetchedAt:   now,
		ContentHash: hash,
	}
}
