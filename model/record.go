package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default paging bounds for list queries.
const (
	ListSkip = 0
	ListTake = 100
)

// Record represents one catalogued audio file. The checksum is the SHA-1 hex
// digest of the raw file bytes and doubles as the file name inside the
// content store.
type Record struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Checksum    string    `gorm:"size:40;uniqueIndex;not null" json:"checksum"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	TrackNumber int       `json:"trackNumber"`
	Date        time.Time `gorm:"index;not null" json:"date"`
	Duration    float64   `json:"duration"` // seconds
	MimeType    string    `gorm:"size:64" json:"mimeType"`
	FilePath    string    `gorm:"size:512" json:"-"` // content store base directory
	Bitrate     int       `json:"bitrate"`           // kbps actually stored
	Cover       string    `gorm:"type:text" json:"cover,omitempty"`
	Locked      bool      `gorm:"default:false" json:"locked"`

	ArtistID   *string `gorm:"type:char(36);index" json:"-"`
	AlbumID    *string `gorm:"type:char(36);index" json:"-"`
	GenreID    *string `gorm:"type:char(36);index" json:"-"`
	LanguageID *string `gorm:"type:char(36);index" json:"-"`

	Artist   *Artist   `json:"artist,omitempty"`
	Album    *Album    `json:"album,omitempty"`
	Genre    *Genre    `json:"genre,omitempty"`
	Language *Language `json:"language,omitempty"`
	Groups   []Group   `gorm:"many2many:groups_records" json:"groups"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Records is one page of records.
type Records struct {
	TotalCount int64    `json:"totalCount"`
	Items      []Record `json:"items"`
}

// TagFilter restricts record queries by referenced tag entities, groups and
// an inclusive UTC date range.
type TagFilter struct {
	Artists   []string   `json:"artists"`
	Albums    []string   `json:"albums"`
	Genres    []string   `json:"genres"`
	Languages []string   `json:"languages"`
	Groups    []string   `json:"groups"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// HasDateRange reports whether a usable date range is set.
func (f TagFilter) HasDateRange() bool {
	return f.StartDate != nil && f.EndDate != nil && !f.EndDate.Before(*f.StartDate)
}

// FileUploaded is the event published when one new file was uploaded and
// awaits indexing.
type FileUploaded struct {
	FileName string    `json:"fileName"`
	Date     time.Time `json:"date"` // last modified date reported by the client
	Groups   []string  `json:"groups"`
}
