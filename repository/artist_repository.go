package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/model"
)

// ArtistRepository resolves free-text artist names to reference-counted
// entities.
type ArtistRepository interface {
	List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Artists, error)
	// TryGetOrCreate returns the artist with the given name, creating and
	// persisting it on first reference. Empty names resolve to nil.
	TryGetOrCreate(tx *gorm.DB, name string) (*model.Artist, error)
	// TryRemove deletes the artist if no record references it anymore.
	// Racing deletions are tolerated as already gone.
	TryRemove(tx *gorm.DB, name string) error
}

type gormArtistRepository struct {
	db *gorm.DB
}

// NewArtistRepository creates a GORM-backed artist repository.
func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &gormArtistRepository{db: db}
}

func (r *gormArtistRepository) List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Artists, error) {
	query := r.db.Model(&model.Artist{})
	if filter != "" {
		query = query.Where("name LIKE ?", "%"+filter+"%")
	}
	if filterByGroups {
		query = query.Where("id IN (?)", referencedTagIDs(r.db, "artist_id", clientGroups))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count artists: %w", err)
	}

	var artists []model.Artist
	if err := query.Order("name").Offset(skip).Limit(take).Find(&artists).Error; err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}

	return &model.Artists{TotalCount: count, Items: artists}, nil
}

func (r *gormArtistRepository) TryGetOrCreate(tx *gorm.DB, name string) (*model.Artist, error) {
	if name == "" {
		return nil, nil
	}

	var artist model.Artist
	err := tx.Where("name = ?", name).First(&artist).Error
	if err == nil {
		return &artist, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to look up artist %q: %w", name, err)
	}

	artist = model.Artist{Name: name}
	if err := tx.Create(&artist).Error; err != nil {
		return nil, fmt.Errorf("failed to create artist %q: %w", name, err)
	}
	return &artist, nil
}

func (r *gormArtistRepository) TryRemove(tx *gorm.DB, name string) error {
	if name == "" {
		return nil
	}

	var referenced int64
	err := tx.Model(&model.Record{}).
		Joins("JOIN artists ON artists.id = records.artist_id").
		Where("artists.name = ?", name).
		Count(&referenced).Error
	if err != nil {
		return fmt.Errorf("failed to count artist references: %w", err)
	}
	if referenced > 0 {
		return nil
	}

	if err := tx.Where("name = ?", name).Delete(&model.Artist{}).Error; err != nil {
		return fmt.Errorf("failed to remove artist %q: %w", name, err)
	}
	return nil
}

// referencedTagIDs builds a subquery selecting ids of tag entities referenced
// by at least one record visible to the given groups.
func referencedTagIDs(db *gorm.DB, column string, clientGroups []string) *gorm.DB {
	return db.Model(&model.Record{}).
		Distinct(column).
		Where(column+" IS NOT NULL").
		Where("records.id IN (?)", recordIDsInGroups(db, clientGroups))
}

// recordIDsInGroups builds a subquery selecting ids of records belonging to
// any of the given groups.
func recordIDsInGroups(db *gorm.DB, groupIDs []string) *gorm.DB {
	return db.Table("groups_records").
		Select("record_id").
		Where("group_id IN ?", groupIDs)
}
