package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/model"
)

// AlbumRepository resolves free-text album names to reference-counted
// entities. Same contract as ArtistRepository.
type AlbumRepository interface {
	List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Albums, error)
	TryGetOrCreate(tx *gorm.DB, name string) (*model.Album, error)
	TryRemove(tx *gorm.DB, name string) error
}

type gormAlbumRepository struct {
	db *gorm.DB
}

// NewAlbumRepository creates a GORM-backed album repository.
func NewAlbumRepository(db *gorm.DB) AlbumRepository {
	return &gormAlbumRepository{db: db}
}

func (r *gormAlbumRepository) List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Albums, error) {
	query := r.db.Model(&model.Album{})
	if filter != "" {
		query = query.Where("name LIKE ?", "%"+filter+"%")
	}
	if filterByGroups {
		query = query.Where("id IN (?)", referencedTagIDs(r.db, "album_id", clientGroups))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count albums: %w", err)
	}

	var albums []model.Album
	if err := query.Order("name").Offset(skip).Limit(take).Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}

	return &model.Albums{TotalCount: count, Items: albums}, nil
}

func (r *gormAlbumRepository) TryGetOrCreate(tx *gorm.DB, name string) (*model.Album, error) {
	if name == "" {
		return nil, nil
	}

	var album model.Album
	err := tx.Where("name = ?", name).First(&album).Error
	if err == nil {
		return &album, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to look up album %q: %w", name, err)
	}

	album = model.Album{Name: name}
	if err := tx.Create(&album).Error; err != nil {
		return nil, fmt.Errorf("failed to create album %q: %w", name, err)
	}
	return &album, nil
}

func (r *gormAlbumRepository) TryRemove(tx *gorm.DB, name string) error {
	if name == "" {
		return nil
	}

	var referenced int64
	err := tx.Model(&model.Record{}).
		Joins("JOIN albums ON albums.id = records.album_id").
		Where("albums.name = ?", name).
		Count(&referenced).Error
	if err != nil {
		return fmt.Errorf("failed to count album references: %w", err)
	}
	if referenced > 0 {
		return nil
	}

	if err := tx.Where("name = ?", name).Delete(&model.Album{}).Error; err != nil {
		return fmt.Errorf("failed to remove album %q: %w", name, err)
	}
	return nil
}
