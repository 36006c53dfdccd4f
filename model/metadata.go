package model

import "time"

// DefaultMimeType is assumed when the uploaded file carries no usable type.
const DefaultMimeType = "audio/mpeg"

// RecordMetaData carries everything the indexer extracted from one uploaded
// file before it becomes a catalog record. Tag names are still free text
// here, resolution to entities happens when the record is saved.
type RecordMetaData struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	Language    string
	Cover       string
	TrackNumber int
	MimeType    string
	Date        time.Time
	Duration    float64

	OriginalFileName string
	PhysicalFilePath string
	Checksum         string
	Bitrate          int
}
