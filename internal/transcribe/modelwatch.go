package transcribe

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ModelWatcher monitors the local engine's model weights file so operators
// learn about a deleted or swapped model from health output instead of a
// stream of failed inferences. It does not reload anything itself: the
// running engine keeps the file it opened, and the status is surfaced for
// the health endpoint.
type ModelWatcher struct {
	modelPath string
	log       zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	// Debounce: coalesce rapid Write events on the same file.
	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	status atomic.Value // string: "watching", "replaced", "missing", "stopped"
}

// NewModelWatcher creates a watcher for the given model file.
func NewModelWatcher(modelPath string, log zerolog.Logger) *ModelWatcher {
	mw := &ModelWatcher{
		modelPath: modelPath,
		log:       log.With().Str("component", "modelwatch").Logger(),
		done:      make(chan struct{}),
	}
	mw.status.Store("watching")
	return mw
}

// Status returns the current watcher state for health reporting.
func (mw *ModelWatcher) Status() string {
	return mw.status.Load().(string)
}

// Start begins watching the model file's directory. Watching the directory
// rather than the file survives the rename-over-replace pattern most model
// downloads use.
func (mw *ModelWatcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	mw.watcher = w

	if err := w.Add(filepath.Dir(mw.modelPath)); err != nil {
		w.Close()
		return err
	}

	mw.log.Info().Str("model", mw.modelPath).Msg("model file watcher started")
	go mw.loop()
	return nil
}

// Stop shuts the watcher down.
func (mw *ModelWatcher) Stop() {
	if mw.watcher != nil {
		mw.watcher.Close()
	}
	<-mw.done
	mw.status.Store("stopped")
}

func (mw *ModelWatcher) loop() {
	defer close(mw.done)

	for {
		select {
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(mw.modelPath) {
				continue
			}
			mw.scheduleCheck()
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.log.Warn().Err(err).Msg("model watcher error")
		}
	}
}

// scheduleCheck coalesces a burst of events into one stat of the model file.
func (mw *ModelWatcher) scheduleCheck() {
	mw.debounceMu.Lock()
	defer mw.debounceMu.Unlock()

	if mw.debounceTimer != nil {
		mw.debounceTimer.Stop()
	}
	mw.debounceTimer = time.AfterFunc(500*time.Millisecond, mw.check)
}

func (mw *ModelWatcher) check() {
	if _, err := os.Stat(mw.modelPath); err != nil {
		mw.status.Store("missing")
		mw.log.Warn().Str("model", mw.modelPath).Msg("model file no longer present")
		return
	}
	mw.status.Store("replaced")
	mw.log.Info().Str("model", mw.modelPath).Msg("model file changed on disk; restart to load it")
}
