package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/we-kode/mml.media/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Artist{},
		&model.Album{},
		&model.Genre{},
		&model.Language{},
		&model.Group{},
		&model.Record{},
		&model.Setting{},
	))
	return db
}

func seedGroup(t *testing.T, db *gorm.DB, name string, isDefault bool) model.Group {
	t.Helper()
	group := model.Group{Name: name, IsDefault: isDefault}
	require.NoError(t, db.Create(&group).Error)
	return group
}

func seedRecord(t *testing.T, db *gorm.DB, repo RecordRepository, title string, date time.Time, groupIDs ...string) model.Record {
	t.Helper()
	record := model.Record{
		Checksum: fmt.Sprintf("%-40s", title)[:40],
		Title:    title,
		Date:     date,
		MimeType: model.DefaultMimeType,
	}
	require.NoError(t, repo.Create(db, &record, groupIDs))
	return record
}

func TestCreateRejectsDuplicateChecksum(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	first := model.Record{Checksum: "aa11", Title: "one", Date: time.Now().UTC()}
	require.NoError(t, repo.Create(db, &first, nil))

	second := model.Record{Checksum: "aa11", Title: "two", Date: time.Now().UTC()}
	err := repo.Create(db, &second, nil)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	indexed, err := repo.IsIndexed("aa11")
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestListOrdersNewestDayFirstEarliestWithinDay(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	day1 := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)

	seedRecord(t, db, repo, "old-late", day1.Add(18*time.Hour))
	seedRecord(t, db, repo, "old-early", day1.Add(9*time.Hour))
	seedRecord(t, db, repo, "new-late", day2.Add(20*time.Hour))
	seedRecord(t, db, repo, "new-early", day2.Add(8*time.Hour))

	records, err := repo.List("", model.TagFilter{}, false, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, records.Items, 4)
	assert.Equal(t, int64(4), records.TotalCount)

	titles := []string{records.Items[0].Title, records.Items[1].Title, records.Items[2].Title, records.Items[3].Title}
	assert.Equal(t, []string{"new-early", "new-late", "old-early", "old-late"}, titles)
}

func TestListFiltersByDateRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	seedRecord(t, db, repo, "march", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	seedRecord(t, db, repo, "april", time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC))
	seedRecord(t, db, repo, "may", time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC))

	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	filter := model.TagFilter{StartDate: &start, EndDate: &end}

	records, err := repo.List("", filter, false, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, records.Items, 1)
	assert.Equal(t, "april", records.Items[0].Title)
}

func TestGroupVisibility(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	g1 := seedGroup(t, db, "g1", false)
	g2 := seedGroup(t, db, "g2", false)

	visible := seedRecord(t, db, repo, "visible", time.Now().UTC(), g1.ID)
	seedRecord(t, db, repo, "hidden", time.Now().UTC(), g2.ID)

	records, err := repo.List("", model.TagFilter{}, true, []string{g1.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, records.Items, 1)
	assert.Equal(t, "visible", records.Items[0].Title)

	inGroup, err := repo.IsInGroup(visible.ID, []string{g1.ID})
	require.NoError(t, err)
	assert.True(t, inGroup)

	inGroup, err = repo.IsInGroup(visible.ID, []string{g2.ID})
	require.NoError(t, err)
	assert.False(t, inGroup)
}

func TestAssignPreservesUnobservedGroups(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	g1 := seedGroup(t, db, "g1", false)
	g2 := seedGroup(t, db, "g2", false)
	g3 := seedGroup(t, db, "g3", false)
	g4 := seedGroup(t, db, "g4", false)

	record := seedRecord(t, db, repo, "track", time.Now().UTC(), g1.ID, g4.ID)

	// The caller observed {g1, g2} and selected {g2, g3}: g1 goes away, g2
	// and g3 come in, g4 was never on the table and stays.
	err := repo.Assign([]string{record.ID}, []string{g1.ID, g2.ID}, []string{g2.ID, g3.ID})
	require.NoError(t, err)

	loaded, err := repo.Get(record.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(loaded.Groups))
	for _, group := range loaded.Groups {
		ids = append(ids, group.ID)
	}
	assert.ElementsMatch(t, []string{g2.ID, g3.ID, g4.ID}, ids)
}

func TestLockToggles(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	record := seedRecord(t, db, repo, "track", time.Now().UTC())

	require.NoError(t, repo.Lock([]string{record.ID}))
	loaded, err := repo.Get(record.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Locked)

	require.NoError(t, repo.Lock([]string{record.ID}))
	loaded, err = repo.Get(record.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Locked)
}

func TestFolderScopedLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	inside := seedRecord(t, db, repo, "inside", time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC))
	outside := seedRecord(t, db, repo, "outside", time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC))

	month := 7
	folder := model.RecordFolder{Year: 2024, Month: &month}
	require.NoError(t, repo.LockFolders([]model.RecordFolder{folder}))

	loaded, err := repo.Get(inside.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Locked)

	loaded, err = repo.Get(outside.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Locked)
}

func TestAssignedGroupsUnion(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	g1 := seedGroup(t, db, "g1", false)
	g2 := seedGroup(t, db, "g2", false)

	a := seedRecord(t, db, repo, "a", time.Now().UTC(), g1.ID)
	b := seedRecord(t, db, repo, "b", time.Now().UTC(), g2.ID)

	groups, err := repo.AssignedGroups([]string{a.ID, b.ID})
	require.NoError(t, err)

	names := make([]string, 0, len(groups))
	for _, group := range groups {
		names = append(names, group.Name)
	}
	assert.ElementsMatch(t, []string{"g1", "g2"}, names)
}

func TestGetReturnsErrNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRecordAndAssignments(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	g1 := seedGroup(t, db, "g1", false)
	record := seedRecord(t, db, repo, "gone", time.Now().UTC(), g1.ID)

	require.NoError(t, repo.Delete(db, record.ID))

	exists, err := repo.Exists(record.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	var assignments int64
	require.NoError(t, db.Table("groups_records").Where("record_id = ?", record.ID).Count(&assignments).Error)
	assert.Zero(t, assignments)
}

func TestSequenceEntriesMatchFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db)

	seedRecord(t, db, repo, "first", time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	seedRecord(t, db, repo, "second", time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC))

	entries, err := repo.SequenceEntries("", model.TagFilter{}, false, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
