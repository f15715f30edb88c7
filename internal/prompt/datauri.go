package prompt

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const defaultMIME = "application/octet-stream"

// SniffMIME returns the media type of blob without parameters.
func SniffMIME(blob []byte) string {
	if len(blob) == 0 {
		return defaultMIME
	}
	mime := http.DetectContentType(blob)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

// EncodeDataURI returns blob as data:<mime>;base64,<data>.
func EncodeDataURI(blob []byte) string {
	return "data:" + SniffMIME(blob) + ";base64," + base64.StdEncoding.EncodeToString(blob)
}

// DecodeDataURI parses a base64 data URI and returns its bytes and media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI has no payload separator")
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("data URI is not base64-encoded")
	}
	if mime == "" {
		mime = defaultMIME
	}
	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return blob, mime, nil
}
