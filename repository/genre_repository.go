package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/model"
)

// GenreRepository resolves free-text genre names to reference-counted
// entities and manages the per-genre compression bitrates. A genre carrying
// a bitrate is policy and survives with zero referencing records.
type GenreRepository interface {
	List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Genres, error)
	// ListCommon returns the most referenced genres visible to the groups.
	ListCommon(clientGroups []string) (*model.Genres, error)
	TryGetOrCreate(tx *gorm.DB, name string) (*model.Genre, error)
	TryRemove(tx *gorm.DB, name string) error
	Exists(id string) (bool, error)
	// Bitrate returns the configured compression target of the named genre,
	// nil when the genre is unknown or has no target.
	Bitrate(name string) (*int, error)
	Bitrates() (*model.GenreBitrates, error)
	UpdateBitrates(bitrates []model.GenreBitrate) error
	// DeleteBitrate clears the policy; an unreferenced genre is removed with
	// it.
	DeleteBitrate(id string) error
}

type gormGenreRepository struct {
	db *gorm.DB
}

// NewGenreRepository creates a GORM-backed genre repository.
func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &gormGenreRepository{db: db}
}

func (r *gormGenreRepository) List(filter string, filterByGroups bool, clientGroups []string, skip, take int) (*model.Genres, error) {
	query := r.db.Model(&model.Genre{})
	if filter != "" {
		query = query.Where("name LIKE ?", "%"+filter+"%")
	}
	if filterByGroups {
		query = query.Where("id IN (?)", referencedTagIDs(r.db, "genre_id", clientGroups))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count genres: %w", err)
	}

	var genres []model.Genre
	if err := query.Order("name").Offset(skip).Limit(take).Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}

	return &model.Genres{TotalCount: count, Items: genres}, nil
}

func (r *gormGenreRepository) ListCommon(clientGroups []string) (*model.Genres, error) {
	var genres []model.Genre
	err := r.db.Model(&model.Genre{}).
		Joins("JOIN records ON records.genre_id = genres.id").
		Where("records.id IN (?)", recordIDsInGroups(r.db, clientGroups)).
		Group("genres.id").
		Order("COUNT(records.id) DESC").
		Limit(15).
		Find(&genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list common genres: %w", err)
	}

	return &model.Genres{TotalCount: int64(len(genres)), Items: genres}, nil
}

func (r *gormGenreRepository) TryGetOrCreate(tx *gorm.DB, name string) (*model.Genre, error) {
	if name == "" {
		return nil, nil
	}

	var genre model.Genre
	err := tx.Where("name = ?", name).First(&genre).Error
	if err == nil {
		return &genre, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to look up genre %q: %w", name, err)
	}

	genre = model.Genre{Name: name}
	if err := tx.Create(&genre).Error; err != nil {
		return nil, fmt.Errorf("failed to create genre %q: %w", name, err)
	}
	return &genre, nil
}

func (r *gormGenreRepository) TryRemove(tx *gorm.DB, name string) error {
	if name == "" {
		return nil
	}

	var referenced int64
	err := tx.Model(&model.Record{}).
		Joins("JOIN genres ON genres.id = records.genre_id").
		Where("genres.name = ?", name).
		Count(&referenced).Error
	if err != nil {
		return fmt.Errorf("failed to count genre references: %w", err)
	}
	if referenced > 0 {
		return nil
	}

	// A configured bitrate keeps the genre alive even unreferenced.
	err = tx.Where("name = ? AND bitrate IS NULL", name).Delete(&model.Genre{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove genre %q: %w", name, err)
	}
	return nil
}

func (r *gormGenreRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Genre{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormGenreRepository) Bitrate(name string) (*int, error) {
	if name == "" {
		return nil, nil
	}

	var genre model.Genre
	err := r.db.Where("name = ?", name).First(&genre).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up genre bitrate: %w", err)
	}
	return genre.Bitrate, nil
}

func (r *gormGenreRepository) Bitrates() (*model.GenreBitrates, error) {
	var genres []model.Genre
	err := r.db.Where("bitrate IS NOT NULL").Order("name").Find(&genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list genre bitrates: %w", err)
	}

	items := make([]model.GenreBitrate, 0, len(genres))
	for _, genre := range genres {
		items = append(items, model.GenreBitrate{GenreID: genre.ID, Name: genre.Name, Bitrate: genre.Bitrate})
	}

	return &model.GenreBitrates{TotalCount: int64(len(items)), Items: items}, nil
}

func (r *gormGenreRepository) UpdateBitrates(bitrates []model.GenreBitrate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, bitrate := range bitrates {
			if bitrate.Bitrate == nil || bitrate.Name == "" {
				continue
			}

			var oldName string
			if bitrate.GenreID != "" {
				var old model.Genre
				if err := tx.Where("id = ?", bitrate.GenreID).First(&old).Error; err == nil {
					oldName = old.Name
				}
			}

			genre, err := r.TryGetOrCreate(tx, bitrate.Name)
			if err != nil {
				return err
			}
			if err := tx.Model(&model.Genre{}).Where("id = ?", genre.ID).Update("bitrate", *bitrate.Bitrate).Error; err != nil {
				return fmt.Errorf("failed to update bitrate of %q: %w", bitrate.Name, err)
			}

			// A rename leaves the old genre behind, clean it up if orphaned.
			if oldName != "" && oldName != bitrate.Name {
				if err := r.TryRemove(tx, oldName); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *gormGenreRepository) DeleteBitrate(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var genre model.Genre
		err := tx.Where("id = ?", id).First(&genre).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up genre: %w", err)
		}

		var referenced int64
		if err := tx.Model(&model.Record{}).Where("genre_id = ?", id).Count(&referenced).Error; err != nil {
			return err
		}

		if referenced == 0 {
			return tx.Delete(&genre).Error
		}
		return tx.Model(&genre).Update("bitrate", nil).Error
	})
}
