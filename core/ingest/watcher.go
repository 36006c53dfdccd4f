package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
)

// Watcher observes the import directory and feeds dropped files into the
// upload queue. Files placed there join the default groups.
type Watcher struct {
	importDir string
	uploadDir string
	queue     *Queue
}

func NewWatcher(importDir, uploadDir string, queue *Queue) *Watcher {
	return &Watcher{importDir: importDir, uploadDir: uploadDir, queue: queue}
}

// Run watches until the context is cancelled. Files already present at
// startup are picked up first.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.importDir); err != nil {
		return err
	}

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.enqueue(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("import watcher error", logger.ErrorField(err))
		}
	}
}

// sweep enqueues files that landed while the watcher was down.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.importDir)
	if err != nil {
		logger.Warn("failed to scan import dir", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.enqueue(ctx, filepath.Join(w.importDir, entry.Name()))
	}
}

func (w *Watcher) enqueue(ctx context.Context, path string) {
	info, err := waitForStable(path)
	if err != nil {
		logger.Warn("skipping import file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	name := filepath.Base(path)
	target := filepath.Join(w.uploadDir, name)
	if err := os.Rename(path, target); err != nil {
		logger.Error("failed to move import file",
			logger.String("path", path),
			logger.ErrorField(err))
		return
	}

	evt := model.FileUploaded{FileName: name, Date: info.ModTime().UTC()}
	if err := w.queue.Publish(ctx, evt); err != nil {
		logger.Error("failed to enqueue import file",
			logger.String("file", name),
			logger.ErrorField(err))
	}
}

// waitForStable waits until the file size stops changing so half-copied
// files are not picked up.
func waitForStable(path string) (os.FileInfo, error) {
	var lastSize int64 = -1
	for i := 0; i < 20; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() == lastSize {
			return info, nil
		}
		lastSize = info.Size()
		time.Sleep(500 * time.Millisecond)
	}
	return os.Stat(path)
}
