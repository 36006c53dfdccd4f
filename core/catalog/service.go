// Package catalog coordinates record persistence, tag resolution and
// playback navigation on top of the repositories.
package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/we-kode/mml.media/core/folders"
	"github.com/we-kode/mml.media/core/sequence"
	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
	"github.com/we-kode/mml.media/storage"
)

// ErrDuplicateChecksum signals that a record with the same content already
// exists.
var ErrDuplicateChecksum = errors.New("record with this checksum already indexed")

// ErrLocked signals that the record is locked against modification.
var ErrLocked = errors.New("record is locked")

// RecordUpdate carries the editable fields of a record. Tag fields hold free
// text names, empty text detaches the tag.
type RecordUpdate struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	TrackNumber int       `json:"trackNumber"`
	Date        time.Time `json:"date"`
	Cover       string    `json:"cover"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	Genre       string    `json:"genre"`
	Language    string    `json:"language"`
}

// Service is the record catalog.
type Service struct {
	db        *gorm.DB
	records   repository.RecordRepository
	artists   repository.ArtistRepository
	albums    repository.AlbumRepository
	genres    repository.GenreRepository
	languages repository.LanguageRepository
	groups    repository.GroupRepository
	store     storage.Store
}

// NewService wires the catalog from its repositories and the content store.
func NewService(
	db *gorm.DB,
	records repository.RecordRepository,
	artists repository.ArtistRepository,
	albums repository.AlbumRepository,
	genres repository.GenreRepository,
	languages repository.LanguageRepository,
	groupRepo repository.GroupRepository,
	store storage.Store,
) *Service {
	return &Service{
		db:        db,
		records:   records,
		artists:   artists,
		albums:    albums,
		genres:    genres,
		languages: languages,
		groups:    groupRepo,
		store:     store,
	}
}

// SaveMetaData turns indexed metadata into a catalog record. Tag names are
// resolved to entities and the record joins the explicitly requested groups,
// falling back to the default groups when none survive validation. The whole
// operation commits atomically.
func (s *Service) SaveMetaData(meta model.RecordMetaData, uploadGroups []string) error {
	groupIDs, err := s.resolveGroups(uploadGroups)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		artist, err := s.artists.TryGetOrCreate(tx, meta.Artist)
		if err != nil {
			return err
		}
		album, err := s.albums.TryGetOrCreate(tx, meta.Album)
		if err != nil {
			return err
		}
		genre, err := s.genres.TryGetOrCreate(tx, meta.Genre)
		if err != nil {
			return err
		}
		language, err := s.languages.TryGetOrCreate(tx, meta.Language)
		if err != nil {
			return err
		}

		mimeType := meta.MimeType
		if mimeType == "" {
			mimeType = model.DefaultMimeType
		}
		title := meta.Title
		if title == "" {
			title = meta.OriginalFileName
		}

		record := model.Record{
			Checksum:    meta.Checksum,
			Title:       title,
			TrackNumber: meta.TrackNumber,
			Date:        meta.Date,
			Duration:    meta.Duration,
			MimeType:    mimeType,
			FilePath:    s.store.Location(),
			Bitrate:     meta.Bitrate,
			Cover:       meta.Cover,
		}
		if artist != nil {
			record.ArtistID = &artist.ID
		}
		if album != nil {
			record.AlbumID = &album.ID
		}
		if genre != nil {
			record.GenreID = &genre.ID
		}
		if language != nil {
			record.LanguageID = &language.ID
		}

		return s.records.Create(tx, &record, groupIDs)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateChecksum
	}
	return err
}

func (s *Service) resolveGroups(uploadGroups []string) ([]string, error) {
	existing, err := s.groups.FilterExisting(uploadGroups)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	return s.groups.DefaultGroupIDs()
}

// Get loads one record with its tags and groups.
func (s *Service) Get(id string) (*model.Record, error) {
	return s.records.Get(id)
}

// List returns one page of records matching the filters.
func (s *Service) List(filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string, skip, take int) (*model.Records, error) {
	return s.records.List(filter, tagFilter, filterByGroups, clientGroups, skip, take)
}

// Update applies the edit and garbage collects tags the record no longer
// references. Locked records reject edits.
func (s *Service) Update(update RecordUpdate) error {
	current, err := s.records.Get(update.ID)
	if err != nil {
		return err
	}
	if current.Locked {
		return ErrLocked
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		artist, err := s.artists.TryGetOrCreate(tx, update.Artist)
		if err != nil {
			return err
		}
		album, err := s.albums.TryGetOrCreate(tx, update.Album)
		if err != nil {
			return err
		}
		genre, err := s.genres.TryGetOrCreate(tx, update.Genre)
		if err != nil {
			return err
		}
		language, err := s.languages.TryGetOrCreate(tx, update.Language)
		if err != nil {
			return err
		}

		record := model.Record{
			ID:          update.ID,
			Title:       update.Title,
			TrackNumber: update.TrackNumber,
			Date:        update.Date.UTC(),
			Cover:       update.Cover,
		}
		if artist != nil {
			record.ArtistID = &artist.ID
		}
		if album != nil {
			record.AlbumID = &album.ID
		}
		if genre != nil {
			record.GenreID = &genre.ID
		}
		if language != nil {
			record.LanguageID = &language.ID
		}
		if err := s.records.Update(tx, &record); err != nil {
			return err
		}

		return s.cleanupTags(tx, current, update.Artist, update.Album, update.Genre, update.Language)
	})
}

// cleanupTags removes the record's previous tag entities when they changed
// and nothing references them anymore.
func (s *Service) cleanupTags(tx *gorm.DB, before *model.Record, artist, album, genre, language string) error {
	if before.Artist != nil && before.Artist.Name != artist {
		if err := s.artists.TryRemove(tx, before.Artist.Name); err != nil {
			return err
		}
	}
	if before.Album != nil && before.Album.Name != album {
		if err := s.albums.TryRemove(tx, before.Album.Name); err != nil {
			return err
		}
	}
	if before.Genre != nil && before.Genre.Name != genre {
		if err := s.genres.TryRemove(tx, before.Genre.Name); err != nil {
			return err
		}
	}
	if before.Language != nil && before.Language.Name != language {
		if err := s.languages.TryRemove(tx, before.Language.Name); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the record, its orphaned tags and the stored file. Locked
// records survive unless force is set. A missing record is a no-op.
func (s *Service) Delete(ctx context.Context, id string, force bool) error {
	record, err := s.records.Get(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if record.Locked && !force {
		return ErrLocked
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.records.Delete(tx, id); err != nil {
			return err
		}
		// The record references nothing anymore, every tag it held is a
		// removal candidate.
		return s.cleanupTags(tx, record, "", "", "", "")
	})
	if err != nil {
		return err
	}

	// The row is gone, a dangling file only wastes space.
	if err := s.store.Delete(ctx, record.Checksum); err != nil {
		logger.Warn("failed to delete stored file",
			logger.String("checksum", record.Checksum),
			logger.ErrorField(err))
	}
	return nil
}

// DeleteFolders removes every record inside the given folders, honoring
// locks the same way Delete does.
func (s *Service) DeleteFolders(ctx context.Context, folderList []model.RecordFolder, clientGroups []string, force bool) error {
	for _, folder := range folderList {
		start, end := folder.ToDateRange()
		filter := model.TagFilter{StartDate: &start, EndDate: &end, Groups: clientGroups}

		entries, err := s.records.SequenceEntries("", filter, len(clientGroups) > 0, clientGroups)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := s.Delete(ctx, entry.ID, force); err != nil && !errors.Is(err, ErrLocked) {
				return err
			}
		}
	}
	return nil
}

// Next resolves the record played after currentID under the given filters.
// A nil record without error means the chain ended.
func (s *Service) Next(currentID, filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string, repeat, shuffle bool) (*model.Record, error) {
	entries, err := s.records.SequenceEntries(filter, tagFilter, filterByGroups, clientGroups)
	if err != nil {
		return nil, err
	}

	entry, ok := sequence.NewChain(entries).Next(currentID, repeat, shuffle)
	if !ok {
		return nil, nil
	}
	return s.records.Get(entry.ID)
}

// Previous resolves the record played before currentID, mirroring Next.
func (s *Service) Previous(currentID, filter string, tagFilter model.TagFilter, filterByGroups bool, clientGroups []string, repeat bool) (*model.Record, error) {
	entries, err := s.records.SequenceEntries(filter, tagFilter, filterByGroups, clientGroups)
	if err != nil {
		return nil, err
	}

	entry, ok := sequence.NewChain(entries).Previous(currentID, repeat)
	if !ok {
		return nil, nil
	}
	return s.records.Get(entry.ID)
}

// ListFolders aggregates the matching records into date folders. The
// granularity follows the filter's date range, pagination runs on folder
// level.
func (s *Service) ListFolders(tagFilter model.TagFilter, filterByGroups bool, clientGroups []string, skip, take int) (*model.RecordFolders, error) {
	dates, err := s.records.ListDates(tagFilter, filterByGroups, clientGroups)
	if err != nil {
		return nil, err
	}

	all := folders.Aggregate(dates, folders.GranularityFor(tagFilter))
	page := folders.Page(all, skip, take)
	return &model.RecordFolders{TotalCount: int64(len(all)), Items: page}, nil
}
