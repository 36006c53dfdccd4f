package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/model"
)

// LanguageRepository resolves free-text language tags to reference-counted
// entities. Same contract as ArtistRepository.
type LanguageRepository interface {
	List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Languages, error)
	TryGetOrCreate(tx *gorm.DB, name string) (*model.Language, error)
	TryRemove(tx *gorm.DB, name string) error
}

type gormLanguageRepository struct {
	db *gorm.DB
}

// NewLanguageRepository creates a GORM-backed language repository.
func NewLanguageRepository(db *gorm.DB) LanguageRepository {
	return &gormLanguageRepository{db: db}
}

func (r *gormLanguageRepository) List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Languages, error) {
	query := r.db.Model(&model.Language{})
	if filter != "" {
		query = query.Where("name LIKE ?", "%"+filter+"%")
	}
	if filterByGroups {
		query = query.Where("id IN (?)", referencedTagIDs(r.db, "language_id", clientGroups))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count languages: %w", err)
	}

	var languages []model.Language
	if err := query.Order("name").Offset(skip).Limit(take).Find(&languages).Error; err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}

	return &model.Languages{TotalCount: count, Items: languages}, nil
}

func (r *gormLanguageRepository) TryGetOrCreate(tx *gorm.DB, name string) (*model.Language, error) {
	if name == "" {
		return nil, nil
	}

	var language model.Language
	err := tx.Where("name = ?", name).First(&language).Error
	if err == nil {
		return &language, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to look up language %q: %w", name, err)
	}

	language = model.Language{Name: name}
	if err := tx.Create(&language).Error; err != nil {
		return nil, fmt.Errorf("failed to create language %q: %w", name, err)
	}
	return &language, nil
}

func (r *gormLanguageRepository) TryRemove(tx *gorm.DB, name string) error {
	if name == "" {
		return nil
	}

	var referenced int64
	err := tx.Model(&model.Record{}).
		Joins("JOIN languages ON languages.id = records.language_id").
		Where("languages.name = ?", name).
		Count(&referenced).Error
	if err != nil {
		return fmt.Errorf("failed to count language references: %w", err)
	}
	if referenced > 0 {
		return nil
	}

	if err := tx.Where("name = ?", name).Delete(&model.Language{}).Error; err != nil {
		return fmt.Errorf("failed to remove language %q: %w", name, err)
	}
	return nil
}
