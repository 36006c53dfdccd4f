package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/we-kode/mml.media/core/audio"
	"github.com/we-kode/mml.media/core/catalog"
	"github.com/we-kode/mml.media/core/tags"
	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
	"github.com/we-kode/mml.media/storage"
)

const (
	indexAttempts = 3
	probeTimeout  = 5 * time.Minute
)

// Notifier is told about finished indexing runs, successful or not.
type Notifier interface {
	NotifyIndexed(fileName string, success bool)
}

// Indexer turns one uploaded file into a catalog record: checksum dedup,
// tag extraction and strip, optional compression, storage, persistence.
type Indexer struct {
	uploadDir  string
	catalog    *catalog.Service
	records    repository.RecordRepository
	genres     repository.GenreRepository
	settings   repository.SettingsRepository
	tagReader  tags.Reader
	transcoder audio.Transcoder
	store      storage.Store
	notifier   Notifier
}

func NewIndexer(
	uploadDir string,
	catalogService *catalog.Service,
	records repository.RecordRepository,
	genres repository.GenreRepository,
	settings repository.SettingsRepository,
	tagReader tags.Reader,
	transcoder audio.Transcoder,
	store storage.Store,
	notifier Notifier,
) *Indexer {
	return &Indexer{
		uploadDir:  uploadDir,
		catalog:    catalogService,
		records:    records,
		genres:     genres,
		settings:   settings,
		tagReader:  tagReader,
		transcoder: transcoder,
		store:      store,
		notifier:   notifier,
	}
}

// Handle indexes one upload event. A missing upload file and an already
// indexed checksum both resolve to success, so redelivered events are
// harmless. A checksum conflict on save retries from the top and settles on
// the dedup path.
func (ix *Indexer) Handle(ctx context.Context, evt model.FileUploaded) error {
	var err error
	for attempt := 1; attempt <= indexAttempts; attempt++ {
		err = ix.index(ctx, evt)
		if err == nil {
			ix.notify(evt.FileName, true)
			return nil
		}
		if !errors.Is(err, catalog.ErrDuplicateChecksum) {
			break
		}
		logger.Debug("retrying after checksum conflict",
			logger.String("file", evt.FileName),
			logger.Int("attempt", attempt))
	}

	ix.notify(evt.FileName, false)
	return fmt.Errorf("failed to index %s: %w", evt.FileName, err)
}

func (ix *Indexer) index(ctx context.Context, evt model.FileUploaded) error {
	tempPath := filepath.Join(ix.uploadDir, evt.FileName)
	if _, err := os.Stat(tempPath); os.IsNotExist(err) {
		// Already consumed by an earlier delivery.
		return nil
	}

	checksum, err := fileChecksum(tempPath)
	if err != nil {
		return err
	}

	indexed, err := ix.records.IsIndexed(checksum)
	if err != nil {
		return err
	}
	if indexed {
		logger.Info("skipping duplicate upload",
			logger.String("file", evt.FileName),
			logger.String("checksum", checksum))
		return os.Remove(tempPath)
	}

	meta, err := ix.tagReader.ReadTags(tempPath)
	if err != nil {
		return err
	}
	if err := ix.tagReader.StripTags(tempPath); err != nil {
		return err
	}

	target, err := ix.targetBitrate(meta.Genre)
	if err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	probed, err := ix.transcoder.Probe(probeCtx, tempPath)
	if err != nil {
		return err
	}

	stagedPath := tempPath + ".staged"
	defer os.Remove(stagedPath)

	storedBitrate := probed.BitrateKbps
	if target > 0 && target < probed.BitrateKbps {
		if err := ix.transcoder.Transcode(probeCtx, tempPath, stagedPath, target); err != nil {
			return err
		}
		storedBitrate = target
	} else {
		if err := ix.transcoder.Copy(tempPath, stagedPath); err != nil {
			return err
		}
	}

	if err := ix.store.Put(ctx, checksum, stagedPath); err != nil {
		return err
	}
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove upload file",
			logger.String("file", evt.FileName),
			logger.ErrorField(err))
	}

	duration := meta.Duration
	if duration == 0 {
		duration = probed.Duration
	}

	record := model.RecordMetaData{
		Title:            meta.Title,
		Artist:           meta.Artist,
		Album:            meta.Album,
		Genre:            meta.Genre,
		Language:         meta.Language,
		TrackNumber:      meta.TrackNumber,
		MimeType:         model.DefaultMimeType,
		Date:             deriveDate(evt.FileName, meta.TrackNumber, evt.Date),
		Duration:         duration,
		OriginalFileName: evt.FileName,
		PhysicalFilePath: ix.store.Location(),
		Checksum:         checksum,
		Bitrate:          storedBitrate,
	}

	if err := ix.catalog.SaveMetaData(record, evt.Groups); err != nil {
		return err
	}

	logger.Info("indexed record",
		logger.String("file", evt.FileName),
		logger.String("checksum", checksum),
		logger.Int("bitrate", storedBitrate))
	return nil
}

// targetBitrate resolves the compression target, genre policy first and the
// global compression rate setting second. Zero means store as is.
func (ix *Indexer) targetBitrate(genre string) (int, error) {
	if genre != "" {
		bitrate, err := ix.genres.Bitrate(genre)
		if err != nil {
			return 0, err
		}
		if bitrate != nil {
			return *bitrate, nil
		}
	}

	raw, err := ix.settings.Get(model.SettingCompressionRate, "0")
	if err != nil {
		return 0, err
	}
	rate, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, nil
	}
	return rate, nil
}

func (ix *Indexer) notify(fileName string, success bool) {
	if ix.notifier != nil {
		ix.notifier.NotifyIndexed(fileName, success)
	}
}

// deriveDate prefers a yyMMdd file name prefix over the upload date and
// offsets it by the track number in minutes so tracks of one recording keep
// their order.
func deriveDate(fileName string, trackNumber int, fallback time.Time) time.Time {
	base := filepath.Base(fileName)
	if len(base) >= 6 {
		if parsed, err := time.ParseInLocation("060102", base[:6], time.UTC); err == nil {
			return parsed.Add(time.Duration(trackNumber) * time.Minute)
		}
	}
	return fallback.UTC()
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha1.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
