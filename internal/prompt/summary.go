package prompt

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PreviewChars caps Summary.Preview, in runes.
const PreviewChars = 80

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Summary is a record without its full text.
// Used by brief listings to keep tool output small.
type Summary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Favorite bool     `json:"favorite"`
	HasImage bool     `json:"hasImage"`

	// Preview is the start of the text on a single line
	Preview string `json:"preview"`

	// Chars is the text length in runes, not bytes
	Chars int `json:"chars"`

	// TokensEstimate is a rough token count for LLM context budgeting
	TokensEstimate int `json:"tokensEstimate"`

	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Summarize strips the text from r, keeping a one-line preview.
func (r Record) Summarize() Summary {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return Summary{
		ID:             r.ID,
		Title:          r.DisplayTitle(),
		Category:       r.Category,
		Tags:           tags,
		Favorite:       r.Favorite,
		HasImage:       r.HasImage,
		Preview:        Preview(r.Text, PreviewChars),
		Chars:          CountChars(r.Text),
		TokensEstimate: EstimateTokens(r.Text),
		UpdatedAt:      r.UpdatedAt,
	}
}

// Preview collapses whitespace in s and cuts it to at most n runes,
// marking a cut with an ellipsis.
func Preview(s string, n int) string {
	s = whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens estimates token count using a word-based heuristic
// (1.3 tokens per word, rounded up).
func EstimateTokens(text string) int {
	words := strings.Fields(strings.TrimSpace(text))
	return int(math.Ceil(float64(len(words)) * 1.3))
}
