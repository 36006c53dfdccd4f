package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/we-kode/mml.media/core/audio"
	"github.com/we-kode/mml.media/core/catalog"
	"github.com/we-kode/mml.media/core/tags"
	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
	"github.com/we-kode/mml.media/storage"
)

type fakeReader struct {
	meta tags.Metadata
}

func (f *fakeReader) ReadTags(path string) (*tags.Metadata, error) {
	meta := f.meta
	return &meta, nil
}

func (f *fakeReader) StripTags(path string) error { return nil }

type fakeTranscoder struct {
	probed  audio.ProbeResult
	targets []int
}

func (f *fakeTranscoder) Probe(ctx context.Context, path string) (audio.ProbeResult, error) {
	return f.probed, nil
}

func (f *fakeTranscoder) Transcode(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error {
	f.targets = append(f.targets, bitrateKbps)
	return f.Copy(inputPath, outputPath)
}

func (f *fakeTranscoder) Copy(inputPath, outputPath string) error {
	src, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

type fakeNotifier struct {
	fileNames []string
	successes []bool
}

func (f *fakeNotifier) NotifyIndexed(fileName string, success bool) {
	f.fileNames = append(f.fileNames, fileName)
	f.successes = append(f.successes, success)
}

type indexEnv struct {
	db         *gorm.DB
	indexer    *Indexer
	records    repository.RecordRepository
	genres     repository.GenreRepository
	settings   repository.SettingsRepository
	transcoder *fakeTranscoder
	notifier   *fakeNotifier
	uploadDir  string
}

func newIndexEnv(t *testing.T, meta tags.Metadata, probed audio.ProbeResult) *indexEnv {
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

	uploadDir := t.TempDir()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	records := repository.NewRecordRepository(db)
	artists := repository.NewArtistRepository(db)
	albums := repository.NewAlbumRepository(db)
	genres := repository.NewGenreRepository(db)
	languages := repository.NewLanguageRepository(db)
	groups := repository.NewGroupRepository(db)
	settings := repository.NewSettingsRepository(db)

	catalogService := catalog.NewService(db, records, artists, albums, genres, languages, groups, store)

	transcoder := &fakeTranscoder{probed: probed}
	notifier := &fakeNotifier{}
	indexer := NewIndexer(uploadDir, catalogService, records, genres, settings,
		&fakeReader{meta: meta}, transcoder, store, notifier)

	return &indexEnv{
		db:         db,
		indexer:    indexer,
		records:    records,
		genres:     genres,
		settings:   settings,
		transcoder: transcoder,
		notifier:   notifier,
		uploadDir:  uploadDir,
	}
}

func (e *indexEnv) stage(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.uploadDir, name), []byte(content), 0o644))
}

func contentChecksum(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestHandleIndexesUpload(t *testing.T) {
	meta := tags.Metadata{Title: "Evening Talk", Artist: "Host", Genre: "Talk", TrackNumber: 2, Duration: 300}
	env := newIndexEnv(t, meta, audio.ProbeResult{BitrateKbps: 128, Duration: 300})

	env.stage(t, "230512_evening.mp3", "audio-bytes")
	evt := model.FileUploaded{FileName: "230512_evening.mp3", Date: time.Now().UTC()}
	require.NoError(t, env.indexer.Handle(context.Background(), evt))

	indexed, err := env.records.IsIndexed(contentChecksum("audio-bytes"))
	require.NoError(t, err)
	assert.True(t, indexed)

	records, err := env.records.List("", model.TagFilter{}, false, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, records.Items, 1)

	record := records.Items[0]
	assert.Equal(t, "Evening Talk", record.Title)
	assert.Equal(t, 128, record.Bitrate)
	require.NotNil(t, record.Artist)
	assert.Equal(t, "Host", record.Artist.Name)

	// File name carries 2023-05-12, track 2 offsets by two minutes.
	expected := time.Date(2023, 5, 12, 0, 2, 0, 0, time.UTC)
	assert.True(t, record.Date.UTC().Equal(expected), "got %v", record.Date)

	// Upload file consumed.
	_, err = os.Stat(filepath.Join(env.uploadDir, "230512_evening.mp3"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, []bool{true}, env.notifier.successes)
}

func TestHandleDuplicateUploadIsNoOp(t *testing.T) {
	env := newIndexEnv(t, tags.Metadata{Title: "track"}, audio.ProbeResult{BitrateKbps: 128})

	env.stage(t, "first.mp3", "same-bytes")
	require.NoError(t, env.indexer.Handle(context.Background(), model.FileUploaded{FileName: "first.mp3", Date: time.Now()}))

	env.stage(t, "second.mp3", "same-bytes")
	require.NoError(t, env.indexer.Handle(context.Background(), model.FileUploaded{FileName: "second.mp3", Date: time.Now()}))

	records, err := env.records.List("", model.TagFilter{}, false, nil, 0, 10)
	require.NoError(t, err)
	assert.Len(t, records.Items, 1)

	_, err = os.Stat(filepath.Join(env.uploadDir, "second.mp3"))
	assert.True(t, os.IsNotExist(err), "duplicate upload file must be removed")
}

func TestHandleTranscodesWhenTargetBelowProbed(t *testing.T) {
	env := newIndexEnv(t, tags.Metadata{Title: "big"}, audio.ProbeResult{BitrateKbps: 192})
	require.NoError(t, env.settings.Save(model.SettingCompressionRate, "128"))

	env.stage(t, "big.mp3", "big-bytes")
	require.NoError(t, env.indexer.Handle(context.Background(), model.FileUploaded{FileName: "big.mp3", Date: time.Now()}))

	assert.Equal(t, []int{128}, env.transcoder.targets)

	records, err := env.records.List("", model.TagFilter{}, false, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, records.Items, 1)
	assert.Equal(t, 128, records.Items[0].Bitrate)
}

func TestHandleCopiesWhenAlreadySmallEnough(t *testing.T) {
	env := newIndexEnv(t, tags.Metadata{Title: "small"}, audio.ProbeResult{BitrateKbps: 96})
	require.NoError(t, env.settings.Save(model.SettingCompressionRate, "128"))

	env.stage(t, "small.mp3", "small-bytes")
	require.NoError(t, env.indexer.Handle(context.Background(), model.FileUploaded{FileName: "small.mp3", Date: time.Now()}))

	assert.Empty(t, env.transcoder.targets)

	records, err := env.records.List("", model.TagFilter{}, false, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, records.Items, 1)
	assert.Equal(t, 96, records.Items[0].Bitrate)
}

func TestGenreBitrateOverridesGlobalRate(t *testing.T) {
	env := newIndexEnv(t, tags.Metadata{Title: "word", Genre: "Speech"}, audio.ProbeResult{BitrateKbps: 192})
	require.NoError(t, env.settings.Save(model.SettingCompressionRate, "128"))

	bitrate := 64
	require.NoError(t, env.genres.UpdateBitrates([]model.GenreBitrate{{Name: "Speech", Bitrate: &bitrate}}))

	env.stage(t, "word.mp3", "word-bytes")
	require.NoError(t, env.indexer.Handle(context.Background(), model.FileUploaded{FileName: "word.mp3", Date: time.Now()}))

	assert.Equal(t, []int{64}, env.transcoder.targets)
}

func TestHandleMissingUploadIsNoOp(t *testing.T) {
	env := newIndexEnv(t, tags.Metadata{}, audio.ProbeResult{})

	err := env.indexer.Handle(context.Background(), model.FileUploaded{FileName: "never-staged.mp3", Date: time.Now()})
	assert.NoError(t, err)
	assert.Equal(t, []bool{true}, env.notifier.successes)
}

func TestDeriveDate(t *testing.T) {
	fallback := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	derived := deriveDate("230512_show.mp3", 3, fallback)
	assert.Equal(t, time.Date(2023, 5, 12, 0, 3, 0, 0, time.UTC), derived)

	derived = deriveDate("no-date-prefix.mp3", 3, fallback)
	assert.Equal(t, fallback, derived)

	derived = deriveDate("x.mp3", 0, fallback)
	assert.Equal(t, fallback, derived)
}
