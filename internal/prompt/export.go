package prompt

// FormatVersion is the current snapshot format tag.
const FormatVersion = 1

// Snapshot is the whole-library backup format:
// {"version": 1, "prompts": [{...record, "imageBase64"?: "data:<mime>;base64,<data>"}]}
type Snapshot struct {
	Version int            `json:"version"`
	Prompts []ExportRecord `json:"prompts"`
}

// ExportRecord is a record with its image inlined as a data URI.
type ExportRecord struct {
	Record
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// ToRecord strips the inlined image and returns the metadata.
func (r ExportRecord) ToRecord() Record {
	return r.Record
}

// RecordToExport converts a Record to an ExportRecord with no image attached.
func RecordToExport(r Record) ExportRecord {
	return ExportRecord{Record: r}
}
