package prompt

import "time"

// Known categories. The store accepts any string; these are the values the
// surfaces offer.
const (
	CategoryImage = "image"
	CategoryVideo = "video"
	CategoryChat  = "chat"
	CategoryCode  = "code"
)

// KnownCategories lists the categories in display order.
var KnownCategories = []string{CategoryImage, CategoryVideo, CategoryChat, CategoryCode}

// Record is a stored prompt. JSON names are the persisted and exported field names.
type Record struct {
	// ID is a UUID v4 assigned by the store and never changed afterwards
	ID string `json:"id"`

	// Title is an optional display label
	Title string `json:"title,omitempty"`

	// Text is the prompt body
	Text string `json:"text"`

	// Category groups prompts; see KnownCategories
	Category string `json:"category"`

	// Tags keeps caller order; duplicates are allowed. Nil means "no tags".
	Tags []string `json:"tags"`

	Favorite bool `json:"favorite"`

	// HasImage claims a blob exists under ID. Readers must tolerate a missing blob.
	HasImage bool `json:"hasImage"`

	// UpdatedAt is an ISO-8601 timestamp, kept verbatim so imports round-trip
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Timestamp formats t the way UpdatedAt is written on save (UTC, milliseconds).
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// HasTag reports whether tag is one of the record's tags (exact match).
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DisplayTitle returns Title, falling back to the first line of Text.
func (r Record) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	for i, c := range r.Text {
		if c == '\n' {
			return r.Text[:i]
		}
	}
	return r.Text
}
