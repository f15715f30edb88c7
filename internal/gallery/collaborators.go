package gallery

import (
	"io"

	"github.com/hpungsan/stocker/internal/prompt"
)

// Renderer draws gallery output. imageURL is empty when the record has no
// resolvable image; active is nil when no tag is selected.
type Renderer interface {
	Card(w io.Writer, record prompt.Record, imageURL string) error
	TagCloud(w io.Writer, tags []string, active *string) error
}

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notifier shows short user-facing messages. Calls must not block.
type Notifier interface {
	Notify(kind Kind, message string)
}

// ImageURLFunc maps a record id to the URL a renderer should show for its image.
type ImageURLFunc func(id string) string

type nopRenderer struct{}

func (nopRenderer) Card(io.Writer, prompt.Record, string) error { return nil }
func (nopRenderer) TagCloud(io.Writer, []string, *string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(Kind, string) {}
