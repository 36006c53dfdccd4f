package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/core/groups"
	"github.com/we-kode/mml.media/core/sequence"
	"github.com/we-kode/mml.media/model"
)

// RecordRepository is the storage backend of the record catalog. Mutating
// operations that take part in tag resolution accept the caller's
// transaction so record and tag changes commit together.
type RecordRepository interface {
	IsIndexed(checksum string) (bool, error)
	Create(tx *gorm.DB, record *model.Record, groupIDs []string) error
	Get(id string) (*model.Record, error)
	Exists(id string) (bool, error)
	// IsInGroup reports whether the record is visible to at least one of the
	// given groups.
	IsInGroup(id string, clientGroups []string) (bool, error)
	Update(tx *gorm.DB, record *model.Record) error
	Delete(tx *gorm.DB, id string) error

	List(filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string, skip, take int) (*model.Records, error)
	// ListDates returns the capture dates of all matching records, newest
	// first, for folder aggregation.
	ListDates(tagFilter model.TagFilter, filterByGroups bool, clientGroups []string) ([]time.Time, error)
	// SequenceEntries returns id and date of every matching record for
	// playback chain construction.
	SequenceEntries(filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string) ([]sequence.Entry, error)

	Assign(recordIDs, initGroups, targetGroups []string) error
	AssignFolders(folders []model.RecordFolder, initGroups, targetGroups []string) error
	Lock(recordIDs []string) error
	LockFolders(folders []model.RecordFolder) error
	AssignedGroups(recordIDs []string) ([]model.Group, error)
	AssignedFolderGroups(folders []model.RecordFolder) ([]model.Group, error)

	UpdateBitrate(checksum string, bitrate int) error
	ListAll(batch func(records []model.Record) error) error
}

type gormRecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &gormRecordRepository{db: db}
}

func (r *gormRecordRepository) IsIndexed(checksum string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Record{}).Where("checksum = ?", checksum).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check checksum: %w", err)
	}
	return count > 0, nil
}

func (r *gormRecordRepository) Create(tx *gorm.DB, record *model.Record, groupIDs []string) error {
	if err := tx.Create(record).Error; err != nil {
		// gorm.ErrDuplicatedKey passes through for the caller's dedup retry.
		return err
	}
	if len(groupIDs) == 0 {
		return nil
	}

	memberships, err := loadGroups(tx, groupIDs)
	if err != nil {
		return err
	}
	if err := tx.Model(record).Association("Groups").Append(memberships); err != nil {
		return fmt.Errorf("failed to assign groups: %w", err)
	}
	return nil
}

func (r *gormRecordRepository) Get(id string) (*model.Record, error) {
	var record model.Record
	err := r.db.
		Preload("Artist").
		Preload("Album").
		Preload("Genre").
		Preload("Language").
		Preload("Groups").
		Where("id = ?", id).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &record, nil
}

func (r *gormRecordRepository) Exists(id string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Record{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRecordRepository) IsInGroup(id string, clientGroups []string) (bool, error) {
	if len(clientGroups) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.Table("groups_records").
		Where("record_id = ? AND group_id IN ?", id, clientGroups).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return count > 0, nil
}

func (r *gormRecordRepository) Update(tx *gorm.DB, record *model.Record) error {
	updates := map[string]interface{}{
		"title":        record.Title,
		"track_number": record.TrackNumber,
		"date":         record.Date,
		"cover":        record.Cover,
		"artist_id":    record.ArtistID,
		"album_id":     record.AlbumID,
		"genre_id":     record.GenreID,
		"language_id":  record.LanguageID,
	}
	result := tx.Model(&model.Record{}).Where("id = ?", record.ID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRecordRepository) Delete(tx *gorm.DB, id string) error {
	if err := tx.Exec("DELETE FROM groups_records WHERE record_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to clear record groups: %w", err)
	}
	if err := tx.Where("id = ?", id).Delete(&model.Record{}).Error; err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// filteredQuery applies the free text filter, the tag filter and optionally
// the group visibility restriction.
func (r *gormRecordRepository) filteredQuery(filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string) *gorm.DB {
	query := r.db.Model(&model.Record{})

	if filter != "" {
		query = query.Where("title LIKE ?", "%"+filter+"%")
	}
	if len(tagFilter.Artists) > 0 {
		query = query.Where("artist_id IN ?", tagFilter.Artists)
	}
	if len(tagFilter.Albums) > 0 {
		query = query.Where("album_id IN ?", tagFilter.Albums)
	}
	if len(tagFilter.Genres) > 0 {
		query = query.Where("genre_id IN ?", tagFilter.Genres)
	}
	if len(tagFilter.Languages) > 0 {
		query = query.Where("language_id IN ?", tagFilter.Languages)
	}
	if tagFilter.HasDateRange() {
		start := dayStart(*tagFilter.StartDate)
		end := dayStart(*tagFilter.EndDate).Add(24 * time.Hour)
		query = query.Where("date >= ? AND date < ?", start, end)
	}

	visibleTo := clientGroups
	if len(tagFilter.Groups) > 0 {
		// An explicit group filter still cannot widen past the client's own
		// groups.
		if filterByGroups {
			visibleTo = intersect(tagFilter.Groups, clientGroups)
		} else {
			visibleTo = tagFilter.Groups
		}
		filterByGroups = true
	}
	if filterByGroups {
		query = query.Where("id IN (?)", recordIDsInGroups(r.db, visibleTo))
	}

	return query
}

func (r *gormRecordRepository) List(filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string, skip, take int) (*model.Records, error) {
	query := r.filteredQuery(filter, tagFilter, filterByGroups, clientGroups)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	var records []model.Record
	err := query.
		Preload("Artist").
		Preload("Album").
		Preload("Genre").
		Preload("Language").
		Order("DATE(date) DESC, date ASC, id ASC").
		Offset(skip).
		Limit(take).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return &model.Records{TotalCount: count, Items: records}, nil
}

func (r *gormRecordRepository) ListDates(tagFilter model.TagFilter, filterByGroups bool, clientGroups []string) ([]time.Time, error) {
	var dates []time.Time
	err := r.filteredQuery("", tagFilter, filterByGroups, clientGroups).
		Order("date DESC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list record dates: %w", err)
	}
	return dates, nil
}

func (r *gormRecordRepository) SequenceEntries(filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string) ([]sequence.Entry, error) {
	var rows []struct {
		ID   string
		Date time.Time
	}
	err := r.filteredQuery(filter, tagFilter, filterByGroups, clientGroups).
		Select("id", "date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sequence entries: %w", err)
	}

	entries := make([]sequence.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, sequence.Entry{ID: row.ID, Date: row.Date})
	}
	return entries, nil
}

func (r *gormRecordRepository) Assign(recordIDs, initGroups, targetGroups []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return assignRecords(tx, recordIDs, initGroups, targetGroups)
	})
}

func (r *gormRecordRepository) AssignFolders(folders []model.RecordFolder, initGroups, targetGroups []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ids, err := recordIDsInFolders(tx, folders)
		if err != nil {
			return err
		}
		return assignRecords(tx, ids, initGroups, targetGroups)
	})
}

func assignRecords(tx *gorm.DB, recordIDs, initGroups, targetGroups []string) error {
	for _, id := range recordIDs {
		var current []string
		err := tx.Table("groups_records").
			Where("record_id = ?", id).
			Pluck("group_id", &current).Error
		if err != nil {
			return fmt.Errorf("failed to load assignments of %s: %w", id, err)
		}

		merged := groups.Merge(current, initGroups, targetGroups)

		memberships, err := loadGroups(tx, merged)
		if err != nil {
			return err
		}
		record := model.Record{ID: id}
		if err := tx.Model(&record).Association("Groups").Replace(memberships); err != nil {
			return fmt.Errorf("failed to reassign %s: %w", id, err)
		}
	}
	return nil
}

func (r *gormRecordRepository) Lock(recordIDs []string) error {
	if len(recordIDs) == 0 {
		return nil
	}
	err := r.db.Model(&model.Record{}).
		Where("id IN ?", recordIDs).
		Update("locked", gorm.Expr("NOT locked")).Error
	if err != nil {
		return fmt.Errorf("failed to toggle locks: %w", err)
	}
	return nil
}

func (r *gormRecordRepository) LockFolders(folders []model.RecordFolder) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ids, err := recordIDsInFolders(tx, folders)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&model.Record{}).
			Where("id IN ?", ids).
			Update("locked", gorm.Expr("NOT locked")).Error
	})
}

func (r *gormRecordRepository) AssignedGroups(recordIDs []string) ([]model.Group, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}

	var result []model.Group
	err := r.db.Model(&model.Group{}).
		Where("id IN (?)", r.db.Table("groups_records").
			Select("group_id").
			Where("record_id IN ?", recordIDs)).
		Order("name").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned groups: %w", err)
	}
	return result, nil
}

func (r *gormRecordRepository) AssignedFolderGroups(folders []model.RecordFolder) ([]model.Group, error) {
	ids, err := recordIDsInFolders(r.db, folders)
	if err != nil {
		return nil, err
	}
	return r.AssignedGroups(ids)
}

func (r *gormRecordRepository) UpdateBitrate(checksum string, bitrate int) error {
	err := r.db.Model(&model.Record{}).
		Where("checksum = ?", checksum).
		Update("bitrate", bitrate).Error
	if err != nil {
		return fmt.Errorf("failed to update bitrate: %w", err)
	}
	return nil
}

// ListAll streams every record in checksum batches to the callback, used by
// the bitrate migration.
func (r *gormRecordRepository) ListAll(batch func(records []model.Record) error) error {
	var records []model.Record
	result := r.db.FindInBatches(&records, 100, func(tx *gorm.DB, _ int) error {
		return batch(records)
	})
	if result.Error != nil {
		return fmt.Errorf("failed to iterate records: %w", result.Error)
	}
	return nil
}

// recordIDsInFolders resolves the ids of all records whose date falls into
// one of the folder date ranges.
func recordIDsInFolders(tx *gorm.DB, folders []model.RecordFolder) ([]string, error) {
	if len(folders) == 0 {
		return nil, nil
	}

	query := tx.Model(&model.Record{})
	ranges := tx.Session(&gorm.Session{NewDB: true})
	for _, folder := range folders {
		start, end := folder.ToDateRange()
		ranges = ranges.Or("date >= ? AND date < ?", start, end.Add(24*time.Hour))
	}
	query = query.Where(ranges)

	var ids []string
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve folder records: %w", err)
	}
	return ids, nil
}

func loadGroups(tx *gorm.DB, ids []string) ([]model.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var result []model.Group
	if err := tx.Where("id IN ?", ids).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	return result, nil
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var result []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			result = append(result, v)
		}
	}
	return result
}

func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
