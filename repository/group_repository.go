package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/model"
)

// GroupRepository manages the client groups records can be assigned to.
type GroupRepository interface {
	List(filter string, skip, take int) (*model.Groups, error)
	Get(id string) (*model.Group, error)
	Create(group *model.Group) error
	Update(group *model.Group) error
	Delete(id string) error
	Exists(id string) (bool, error)
	// DefaultGroupIDs returns the ids of groups new records join when the
	// upload names none.
	DefaultGroupIDs() ([]string, error)
	// FilterExisting drops ids that do not name a known group.
	FilterExisting(ids []string) ([]string, error)
}

type gormGroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &gormGroupRepository{db: db}
}

func (r *gormGroupRepository) List(filter string, skip, take int) (*model.Groups, error) {
	query := r.db.Model(&model.Group{})
	if filter != "" {
		query = query.Where("name LIKE ?", "%"+filter+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count groups: %w", err)
	}

	var groups []model.Group
	if err := query.Order("name").Offset(skip).Limit(take).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return &model.Groups{TotalCount: count, Items: groups}, nil
}

func (r *gormGroupRepository) Get(id string) (*model.Group, error) {
	var group model.Group
	err := r.db.Where("id = ?", id).First(&group).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return &group, nil
}

func (r *gormGroupRepository) Create(group *model.Group) error {
	if err := r.db.Create(group).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *gormGroupRepository) Update(group *model.Group) error {
	result := r.db.Model(&model.Group{}).
		Where("id = ?", group.ID).
		Updates(map[string]interface{}{"name": group.Name, "is_default": group.IsDefault})
	if result.Error != nil {
		return fmt.Errorf("failed to update group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormGroupRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM groups_records WHERE group_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to clear group assignments: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Group{}).Error; err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
}

func (r *gormGroupRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Group{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormGroupRepository) DefaultGroupIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&model.Group{}).Where("is_default = ?", true).Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load default groups: %w", err)
	}
	return ids, nil
}

func (r *gormGroupRepository) FilterExisting(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var existing []string
	err := r.db.Model(&model.Group{}).Where("id IN ?", ids).Pluck("id", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to filter groups: %w", err)
	}
	return existing, nil
}
