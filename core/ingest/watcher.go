package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"frameline/core/timeline"
	"frameline/logger"
	"frameline/model"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the producer time to finish writing a payload file
// before we read it.
const settleDelay = 100 * time.Millisecond

// dropFile is the on-disk shape of a spooled drop payload.
type dropFile struct {
	ProjectID string         `json:"projectId"`
	Item      model.DropItem `json:"item"`
}

// Watcher tails a spool directory for JSON drop payloads written by the
// generation pipeline and places them on the timeline. Successfully placed
// files are removed; failed ones are renamed aside with a .err suffix so
// they are not retried in a loop.
type Watcher struct {
	dir         string
	provisioner *timeline.Provisioner
}

// NewWatcher creates a watcher for the given spool directory.
func NewWatcher(dir string, provisioner *timeline.Provisioner) *Watcher {
	return &Watcher{dir: dir, provisioner: provisioner}
}

// Run processes payloads already in the spool, then watches for new ones
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	// Drain anything dropped before the watch started.
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			w.process(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}

	logger.Info("drop spool watcher started", logger.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create && strings.HasSuffix(event.Name, ".json") {
				time.Sleep(settleDelay)
				w.process(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("drop spool watch error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read drop payload", logger.String("path", path), logger.ErrorField(err))
		return
	}
	var payload dropFile
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("invalid drop payload", logger.String("path", path), logger.ErrorField(err))
		w.quarantine(path)
		return
	}

	kf, err := w.provisioner.PlaceMedia(ctx, payload.ProjectID, payload.Item)
	if err != nil {
		logger.Warn("drop payload placement failed",
			logger.String("path", path),
			logger.String("itemId", payload.Item.ID),
			logger.ErrorField(err))
		w.quarantine(path)
		return
	}
	if kf == nil {
		// Not eligible (status gate); drop the file, the pipeline will spool
		// it again once the item completes.
		logger.Debug("drop payload skipped", logger.String("path", path))
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("failed to remove processed drop payload", logger.String("path", path), logger.ErrorField(err))
	}
}

func (w *Watcher) quarantine(path string) {
	if err := os.Rename(path, path+".err"); err != nil {
		logger.Warn("failed to quarantine drop payload", logger.String("path", path), logger.ErrorField(err))
	}
}
