package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-kode/mml.media/model"
)

func TestTryGetOrCreateGenre(t *testing.T) {
	db := newTestDB(t)
	repo := NewGenreRepository(db)

	genre, err := repo.TryGetOrCreate(db, "Jazz")
	require.NoError(t, err)
	require.NotNil(t, genre)

	again, err := repo.TryGetOrCreate(db, "Jazz")
	require.NoError(t, err)
	assert.Equal(t, genre.ID, again.ID)

	none, err := repo.TryGetOrCreate(db, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTryRemoveGenreHonorsReferences(t *testing.T) {
	db := newTestDB(t)
	repo := NewGenreRepository(db)
	records := NewRecordRepository(db)

	genre, err := repo.TryGetOrCreate(db, "Rock")
	require.NoError(t, err)

	record := model.Record{Checksum: "cafe", Title: "track", Date: time.Now().UTC(), GenreID: &genre.ID}
	require.NoError(t, records.Create(db, &record, nil))

	require.NoError(t, repo.TryRemove(db, "Rock"))
	exists, err := repo.Exists(genre.ID)
	require.NoError(t, err)
	assert.True(t, exists, "referenced genre must survive")

	require.NoError(t, records.Delete(db, record.ID))
	require.NoError(t, repo.TryRemove(db, "Rock"))
	exists, err = repo.Exists(genre.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTryRemoveKeepsGenreWithBitrate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGenreRepository(db)

	bitrate := 128
	require.NoError(t, repo.UpdateBitrates([]model.GenreBitrate{{Name: "Audiobook", Bitrate: &bitrate}}))

	// Never referenced by a record, but the bitrate policy keeps it.
	require.NoError(t, repo.TryRemove(db, "Audiobook"))

	stored, err := repo.Bitrate("Audiobook")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 128, *stored)
}

func TestUpdateBitratesCreatesGenres(t *testing.T) {
	db := newTestDB(t)
	repo := NewGenreRepository(db)

	bitrate := 96
	require.NoError(t, repo.UpdateBitrates([]model.GenreBitrate{{Name: "Podcast", Bitrate: &bitrate}}))

	bitrates, err := repo.Bitrates()
	require.NoError(t, err)
	require.Len(t, bitrates.Items, 1)
	assert.Equal(t, "Podcast", bitrates.Items[0].Name)
	assert.Equal(t, 96, *bitrates.Items[0].Bitrate)
}

func TestDeleteBitrate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGenreRepository(db)
	records := NewRecordRepository(db)

	bitrate := 64
	require.NoError(t, repo.UpdateBitrates([]model.GenreBitrate{{Name: "Speech", Bitrate: &bitrate}}))

	bitrates, err := repo.Bitrates()
	require.NoError(t, err)
	require.Len(t, bitrates.Items, 1)
	genreID := bitrates.Items[0].GenreID

	// With a referencing record only the policy goes away.
	record := model.Record{Checksum: "beef", Title: "talk", Date: time.Now().UTC(), GenreID: &genreID}
	require.NoError(t, records.Create(db, &record, nil))

	require.NoError(t, repo.DeleteBitrate(genreID))
	exists, err := repo.Exists(genreID)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := repo.Bitrate("Speech")
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Unreferenced, the genre goes with the policy.
	require.NoError(t, repo.UpdateBitrates([]model.GenreBitrate{{GenreID: genreID, Name: "Speech", Bitrate: &bitrate}}))
	require.NoError(t, records.Delete(db, record.ID))
	require.NoError(t, repo.DeleteBitrate(genreID))

	exists, err = repo.Exists(genreID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSettingsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db)

	value, err := repo.Get(model.SettingCompressionRate, "0")
	require.NoError(t, err)
	assert.Equal(t, "0", value)

	require.NoError(t, repo.Save(model.SettingCompressionRate, "128"))
	require.NoError(t, repo.Save(model.SettingCompressionRate, "192"))

	value, err = repo.Get(model.SettingCompressionRate, "0")
	require.NoError(t, err)
	assert.Equal(t, "192", value)
}
