package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/we-kode/mml.media/core/audio"
	"github.com/we-kode/mml.media/db"
	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
	"github.com/we-kode/mml.media/storage"
)

// migrateBitratesCmd backfills Record.Bitrate by probing the stored files.
// Older catalogs predate bitrate tracking. The run is guarded by a settings
// flag so it executes once.
var migrateBitratesCmd = &cobra.Command{
	Use:   "migrate-bitrates",
	Short: "Probe stored files once and backfill missing record bitrates",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := initRuntime()

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("failed to connect to database", logger.ErrorField(err))
		}
		defer db.CloseGormDB()

		settings := repository.NewSettingsRepository(db.GormDB)
		migrated, err := settings.Get(model.SettingBitratesMigrated, "false")
		if err != nil {
			logger.Fatal("failed to read migration flag", logger.ErrorField(err))
		}
		if migrated == "true" {
			logger.Info("bitrates already migrated, nothing to do")
			return
		}

		store, err := storage.NewStore(cfg)
		if err != nil {
			logger.Fatal("failed to open content store", logger.ErrorField(err))
		}

		records := repository.NewRecordRepository(db.GormDB)
		transcoder := audio.NewFFmpegTranscoder(cfg.FFmpegPath)
		ctx := context.Background()

		var updated, failed int
		err = records.ListAll(func(batch []model.Record) error {
			for _, record := range batch {
				if record.Bitrate > 0 {
					continue
				}
				bitrate, err := probeStored(ctx, store, transcoder, record.Checksum)
				if err != nil {
					logger.Warn("failed to probe stored record",
						logger.String("checksum", record.Checksum),
						logger.ErrorField(err))
					failed++
					continue
				}
				if err := records.UpdateBitrate(record.Checksum, bitrate); err != nil {
					return err
				}
				updated++
			}
			return nil
		})
		if err != nil {
			logger.Fatal("bitrate migration aborted", logger.ErrorField(err))
		}

		if err := settings.Save(model.SettingBitratesMigrated, "true"); err != nil {
			logger.Fatal("failed to persist migration flag", logger.ErrorField(err))
		}

		logger.Info("bitrate migration finished",
			logger.Int("updated", updated),
			logger.Int("failed", failed))
	},
}

// probeStored downloads the object into a temp file so ffprobe can read it
// regardless of the store backend.
func probeStored(ctx context.Context, store storage.Store, transcoder *audio.FFmpegTranscoder, checksum string) (int, error) {
	object, _, err := store.Open(ctx, checksum)
	if err != nil {
		return 0, err
	}
	defer object.Close()

	temp, err := os.CreateTemp("", "mml-probe-*")
	if err != nil {
		return 0, err
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	_, err = io.Copy(temp, object)
	temp.Close()
	if err != nil {
		return 0, err
	}

	result, err := transcoder.Probe(ctx, filepath.Clean(tempPath))
	if err != nil {
		return 0, err
	}
	return result.BitrateKbps, nil
}

func init() {
	rootCmd.AddCommand(migrateBitratesCmd)
}
