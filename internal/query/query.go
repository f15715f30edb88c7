// Package query narrows a prompt collection to the records a gallery view shows.
package query

import (
	"strings"

	"github.com/samber/lo"

	"github.com/hpungsan/stocker/internal/prompt"
)

// Pseudo-categories understood by Filter in addition to the record categories.
const (
	CategoryAll      = "all"
	CategoryFavorite = "favorite"
)

// Categories lists every selectable category in display order.
var Categories = append([]string{CategoryAll, CategoryFavorite}, prompt.KnownCategories...)

// FilterState is the current view selection. Start from DefaultFilterState:
// an empty Category only matches records whose category is empty.
type FilterState struct {
	Category string  `json:"category"`
	Tag      *string `json:"tag,omitempty"`
	Query    string  `json:"query,omitempty"`
}

// DefaultFilterState shows everything.
func DefaultFilterState() FilterState {
	return FilterState{Category: CategoryAll}
}

// WithCategory returns a copy of s with the category set.
func (s FilterState) WithCategory(category string) FilterState {
	s.Category = category
	return s
}

// WithTag returns a copy of s with the tag set. nil clears it.
func (s FilterState) WithTag(tag *string) FilterState {
	if tag != nil {
		t := *tag
		tag = &t
	}
	s.Tag = tag
	return s
}

// WithQuery returns a copy of s with the search text set.
func (s FilterState) WithQuery(q string) FilterState {
	s.Query = q
	return s
}

// Filter returns the records matching state, in input order. The result is
// always a new slice; records is not modified.
//
// Stages run in a fixed order: category, then tag, then search. Each stage
// only narrows, so the result equals the intersection of the stages.
func Filter(records []prompt.Record, state FilterState) []prompt.Record {
	out := lo.Filter(records, func(r prompt.Record, _ int) bool {
		return matchCategory(r, state.Category)
	})

	if state.Tag != nil {
		tag := *state.Tag
		out = lo.Filter(out, func(r prompt.Record, _ int) bool {
			return lo.Contains(r.Tags, tag)
		})
	}

	// Blank text skips the stage; otherwise the text is matched as typed.
	if strings.TrimSpace(state.Query) != "" {
		q := strings.ToLower(state.Query)
		out = lo.Filter(out, func(r prompt.Record, _ int) bool {
			return matchSearch(r, q)
		})
	}

	if out == nil {
		out = []prompt.Record{}
	}
	return out
}

func matchCategory(r prompt.Record, category string) bool {
	switch category {
	case CategoryAll:
		return true
	case CategoryFavorite:
		return r.Favorite
	default:
		return r.Category == category
	}
}

// matchSearch expects q already lowercased.
func matchSearch(r prompt.Record, q string) bool {
	if strings.Contains(strings.ToLower(r.Text), q) {
		return true
	}
	return lo.SomeBy(r.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), q)
	})
}
