package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Group is an access-control label. Records carry any number of groups and a
// client only sees records sharing at least one group with its claims.
type Group struct {
	ID        string `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string `gorm:"size:255;not null" json:"name"`
	IsDefault bool   `gorm:"default:false" json:"isDefault"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Groups is one page of groups.
type Groups struct {
	TotalCount int64   `json:"totalCount"`
	Items      []Group `json:"items"`
}

// Setting is one persisted key/value setting.
type Setting struct {
	// "key" is reserved in MySQL, keep the column name explicit.
	Key   string `gorm:"column:setting_key;size:128;primaryKey" json:"key"`
	Value string `gorm:"size:512" json:"value"`
}

// Setting keys used by the ingestion pipeline.
const (
	SettingCompressionRate  = "MML.CompressionRate"
	SettingBitratesMigrated = "MML.BitratesMigrated"
)
