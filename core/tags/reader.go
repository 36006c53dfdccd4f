// Package tags reads and strips embedded audio metadata.
package tags

import (
	"fmt"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"
)

// Metadata holds the embedded tags of one audio file. Empty strings mean the
// tag was not present.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	Language    string
	TrackNumber int
	Duration    float64 // seconds, 0 if unknown
}

// Reader is the tag reader contract consumed by the ingestion pipeline.
type Reader interface {
	// ReadTags extracts the embedded tags of the file at path.
	ReadTags(path string) (*Metadata, error)
	// StripTags removes all embedded tags from the file in place.
	StripTags(path string) error
}

type taglibReader struct{}

// NewReader returns a Reader backed by taglib.
func NewReader() Reader {
	return &taglibReader{}
}

func (r *taglibReader) ReadTags(path string) (*Metadata, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags of %s: %w", path, err)
	}

	meta := &Metadata{
		Title:    firstValue(raw, taglib.Title),
		Artist:   firstValue(raw, taglib.Artist),
		Album:    firstValue(raw, taglib.Album),
		Genre:    firstValue(raw, taglib.Genre),
		Language: firstValue(raw, "LANGUAGE"),
	}

	if track := firstValue(raw, taglib.TrackNumber); track != "" {
		// Track numbers may come as "3/12".
		if idx := strings.IndexByte(track, '/'); idx >= 0 {
			track = track[:idx]
		}
		if n, err := strconv.Atoi(strings.TrimSpace(track)); err == nil {
			meta.TrackNumber = n
		}
	}

	if properties, err := taglib.ReadProperties(path); err == nil {
		meta.Duration = properties.Length.Seconds()
	}

	return meta, nil
}

func (r *taglibReader) StripTags(path string) error {
	if err := taglib.WriteTags(path, nil, taglib.Clear); err != nil {
		return fmt.Errorf("failed to strip tags of %s: %w", path, err)
	}
	return nil
}

func firstValue(raw map[string][]string, key string) string {
	values := raw[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
