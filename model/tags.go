package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artist is a lazily created, reference-counted catalog dimension.
type Artist struct {
	ID   string `gorm:"type:char(36);primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Album is a lazily created, reference-counted catalog dimension.
type Album struct {
	ID   string `gorm:"type:char(36);primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Genre is a lazily created catalog dimension. Unlike the other tag kinds it
// may carry a configured target bitrate; a genre holding a bitrate survives
// even with zero referencing records.
type Genre struct {
	ID      string `gorm:"type:char(36);primaryKey" json:"id"`
	Name    string `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Bitrate *int   `json:"bitrate,omitempty"` // kbps compression target
}

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Language is a lazily created, reference-counted catalog dimension.
type Language struct {
	ID   string `gorm:"type:char(36);primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

func (l *Language) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Artists is one page of artists.
type Artists struct {
	TotalCount int64    `json:"totalCount"`
	Items      []Artist `json:"items"`
}

// Albums is one page of albums.
type Albums struct {
	TotalCount int64   `json:"totalCount"`
	Items      []Album `json:"items"`
}

// Genres is one page of genres.
type Genres struct {
	TotalCount int64   `json:"totalCount"`
	Items      []Genre `json:"items"`
}

// Languages is one page of languages.
type Languages struct {
	TotalCount int64      `json:"totalCount"`
	Items      []Language `json:"items"`
}

// GenreBitrate is the configured compression target of one genre.
type GenreBitrate struct {
	GenreID string `json:"genreId"`
	Name    string `json:"name"`
	Bitrate *int   `json:"bitrate"`
}

// GenreBitrates is one page of genre bitrates.
type GenreBitrates struct {
	TotalCount int64          `json:"totalCount"`
	Items      []GenreBitrate `json:"items"`
}
