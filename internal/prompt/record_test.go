package prompt

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.FixedZone("JST", 9*3600))
	if got := Timestamp(ts); got != "2024-03-09T05:05:07.123Z" {
		t.Errorf("Timestamp() = %q, want %q", got, "2024-03-09T05:05:07.123Z")
	}
}

func TestRecord_HasTag(t *testing.T) {
	r := Record{Tags: []string{"anime", "portrait"}}
	if !r.HasTag("anime") {
		t.Error("HasTag(anime) = false, want true")
	}
	if r.HasTag("Anime") {
		t.Error("HasTag is case-sensitive")
	}
	if (Record{}).HasTag("anime") {
		t.Error("record without tags has no tag")
	}
}

func TestRecord_DisplayTitle(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{Title: "Sunset", Text: "a sunset"}, "Sunset"},
		{Record{Text: "first line\nsecond"}, "first line"},
		{Record{Text: "only"}, "only"},
	}
	for _, tt := range tests {
		if got := tt.rec.DisplayTitle(); got != tt.want {
			t.Errorf("DisplayTitle() = %q, want %q", got, tt.want)
		}
	}
}

func TestRecord_JSONFieldNames(t *testing.T) {
	r := Record{ID: "1", Text: "t", Category: "image", Tags: []string{"a"}, Favorite: true, HasImage: true, UpdatedAt: "2024-01-01T00:00:00.000Z"}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"id", "text", "category", "tags", "favorite", "hasImage", "updatedAt"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
}

func TestExportRecord_InlinesImageField(t *testing.T) {
	er := ExportRecord{Record: Record{ID: "1", Text: "t"}, ImageBase64: "data:image/png;base64,AA=="}
	data, err := json.Marshal(er)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back ExportRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.ImageBase64 != er.ImageBase64 {
		t.Errorf("ImageBase64 = %q, want %q", back.ImageBase64, er.ImageBase64)
	}
	if !reflect.DeepEqual(back.ToRecord(), er.Record) {
		t.Errorf("ToRecord() = %+v, want %+v", back.ToRecord(), er.Record)
	}

	plain, _ := json.Marshal(RecordToExport(Record{ID: "2"}))
	var fields map[string]any
	_ = json.Unmarshal(plain, &fields)
	if _, ok := fields["imageBase64"]; ok {
		t.Errorf("imageBase64 should be omitted when empty: %s", plain)
	}
}

func TestSnapshot_MissingPrompts(t *testing.T) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(`{"version": 1}`), &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Prompts != nil {
		t.Errorf("Prompts = %v, want nil", snap.Prompts)
	}
}
