package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// MappingsWatcher reloads the mapping tables when either mapping file
// changes on disk, so an edited user_mapping.json takes effect without a
// restart.
type MappingsWatcher struct {
	mappings *Mappings
	watcher  *fsnotify.Watcher
	files    map[string]bool
	stopChan chan struct{}
}

// NewMappingsWatcher creates a watcher over the directories holding the
// mapping files.
func NewMappingsWatcher(mappings *Mappings) (*MappingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &MappingsWatcher{
		mappings: mappings,
		watcher:  watcher,
		files: map[string]bool{
			filepath.Clean(mappings.attributeMapPath): true,
			filepath.Clean(mappings.assigneeMapPath):  true,
		},
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching. Directories are watched rather than the files
// themselves so editor rename-and-replace saves are still seen.
func (mw *MappingsWatcher) Start() error {
	dirs := map[string]bool{}
	for file := range mw.files {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := mw.watcher.Add(dir); err != nil {
			return err
		}
	}

	go mw.watchForChanges()
	log.Info().Int("files", len(mw.files)).Msg("Started watching mapping files for changes")
	return nil
}

// Stop shuts the watcher down.
func (mw *MappingsWatcher) Stop() {
	close(mw.stopChan)
	mw.watcher.Close()
}

func (mw *MappingsWatcher) watchForChanges() {
	// Debounce rapid write bursts from editors.
	var reloadTimer *time.Timer

	for {
		select {
		case <-mw.stopChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return

		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if !mw.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Mapping file changed")
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(500*time.Millisecond, mw.mappings.Reload)

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Mapping file watcher error")
		}
	}
}
