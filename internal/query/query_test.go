package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/stocker/internal/prompt"
)

func ptr(s string) *string { return &s }

func ids(records []prompt.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func sample() []prompt.Record {
	return []prompt.Record{
		{ID: "1", Text: "A golden Sunset over the sea", Category: "image", Favorite: true, Tags: []string{"nature", "sunset"}},
		{ID: "2", Text: "Portrait of a cat", Category: "image", Tags: []string{"anime", "portrait"}},
		{ID: "3", Text: "Write a Go HTTP server", Category: "code"},
		{ID: "4", Text: "Summarize this thread", Category: "chat", Favorite: true, Tags: []string{"work"}},
		{ID: "5", Text: "Drone flyover", Category: "video", Tags: []string{"Nature"}},
	}
}

func TestFilter_FavoriteScenario(t *testing.T) {
	got := Filter(sample(), DefaultFilterState().WithCategory(CategoryFavorite))
	assert.Equal(t, []string{"1", "4"}, ids(got))
}

func TestFilter_CategoryAndTagScenario(t *testing.T) {
	got := Filter(sample(), FilterState{Category: "image", Tag: ptr("nature")})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFilter_Category(t *testing.T) {
	tests := []struct {
		category string
		want     []string
	}{
		{CategoryAll, []string{"1", "2", "3", "4", "5"}},
		{"", []string{"1", "2", "3", "4", "5"}},
		{"image", []string{"1", "2"}},
		{"Image", []string{}},
		{"video", []string{"5"}},
		{"unknown", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got := Filter(sample(), FilterState{Category: tt.category})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_TagIsExact(t *testing.T) {
	got := Filter(sample(), DefaultFilterState().WithTag(ptr("nature")))
	assert.Equal(t, []string{"1"}, ids(got), "tag match is case-sensitive")

	got = Filter(sample(), DefaultFilterState().WithTag(ptr("natu")))
	assert.Empty(t, got)
}

func TestFilter_Search(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"text substring", "golden", []string{"1"}},
		{"tag substring", "portr", []string{"2"}},
		{"tag case folded", "NATURE", []string{"1", "5"}},
		{"inner space kept", "go http", []string{"3"}},
		{"leading space is part of the text", " cat", []string{"2"}},
		{"trailing space is part of the text", "sea ", []string{}},
		{"blank skips stage", "   ", []string{"1", "2", "3", "4", "5"}},
		{"no match", "zebra", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sample(), DefaultFilterState().WithQuery(tt.query))
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_SearchMatchesUntrimmedText(t *testing.T) {
	records := []prompt.Record{
		{ID: "1", Text: "sunset", Category: "image"},
		{ID: "2", Text: "a sun", Category: "image"},
	}

	got := Filter(records, DefaultFilterState().WithQuery(" sun"))
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilter_EmptyCategoryIsExact(t *testing.T) {
	records := []prompt.Record{
		{ID: "1", Text: "no category"},
		{ID: "2", Text: "an image", Category: "image"},
	}

	assert.Equal(t, []string{"1"}, ids(Filter(records, FilterState{})))
	assert.Equal(t, []string{"1", "2"}, ids(Filter(records, DefaultFilterState())))
}

func TestFilter_SearchIsCaseInsensitive(t *testing.T) {
	upper := Filter(sample(), DefaultFilterState().WithQuery("SUNSET"))
	lower := Filter(sample(), DefaultFilterState().WithQuery("sunset"))
	assert.Equal(t, lower, upper)
	assert.Equal(t, []string{"1"}, ids(lower))
}

func TestFilter_NilTagsNeverMatch(t *testing.T) {
	records := []prompt.Record{{ID: "x", Text: "plain", Category: "code"}}

	assert.Empty(t, Filter(records, DefaultFilterState().WithTag(ptr("go"))))
	assert.Empty(t, Filter(records, DefaultFilterState().WithQuery("go")))
}

func TestFilter_CompositionEqualsIntersection(t *testing.T) {
	records := sample()
	states := []FilterState{
		{Category: "image", Tag: ptr("nature"), Query: "sun"},
		{Category: CategoryFavorite, Query: "a"},
		{Category: CategoryAll, Tag: ptr("work"), Query: "thread"},
		{Category: "video", Query: "nature"},
		{Category: "chat", Tag: ptr("nature")},
	}

	for _, state := range states {
		pipeline := ids(Filter(records, state))

		byCategory := ids(Filter(records, FilterState{Category: state.Category}))
		byTag := ids(Filter(records, DefaultFilterState().WithTag(state.Tag)))
		bySearch := ids(Filter(records, DefaultFilterState().WithQuery(state.Query)))

		var intersection []string
		for _, id := range byCategory {
			if contains(byTag, id) && contains(bySearch, id) {
				intersection = append(intersection, id)
			}
		}
		if intersection == nil {
			intersection = []string{}
		}
		assert.Equal(t, intersection, pipeline, "state %+v", state)

		for _, id := range pipeline {
			assert.True(t, contains(ids(records), id), "result must be a subset of input")
		}
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := sample()
	before := sample()

	got := Filter(records, FilterState{Category: "image"})
	require.NotEmpty(t, got)
	got[0].Text = "mutated"

	assert.Equal(t, before, records)
}

func TestFilter_EmptyInput(t *testing.T) {
	got := Filter(nil, DefaultFilterState())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWithTag_Copies(t *testing.T) {
	tag := "nature"
	state := DefaultFilterState().WithTag(&tag)
	tag = "changed"

	require.NotNil(t, state.Tag)
	assert.Equal(t, "nature", *state.Tag)
	assert.Nil(t, state.WithTag(nil).Tag)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"all", "favorite", "image", "video", "chat", "code"}, Categories)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
