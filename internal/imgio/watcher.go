package imgio

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FrameEvent reports a new image file appearing in a watched series
// folder.
type FrameEvent struct {
	Path string
	Time time.Time
}

// Watcher monitors series folders for newly written image files, for
// series that are still being acquired while analysis runs.
type Watcher struct {
	watcher   *fsnotify.Watcher
	Events    chan FrameEvent
	extension string
	log       *slog.Logger
	done      chan struct{}
}

// NewWatcher watches the given folders for files with the series
// extension (e.g. ".png").
func NewWatcher(folders []string, extension string, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:   fw,
		Events:    make(chan FrameEvent, 100),
		extension: strings.ToLower(extension),
		log:       log,
		done:      make(chan struct{}),
	}
	for _, folder := range folders {
		if err := fw.Add(folder); err != nil {
			fw.Close()
			return nil, err
		}
		log.Info("watching folder", "path", folder, "extension", extension)
	}
	go w.loop()
	return w, nil
}

// Stop terminates the watch loop and closes the event channel.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.Events)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != w.extension {
				continue
			}
			select {
			case w.Events <- FrameEvent{Path: event.Name, Time: time.Now()}:
			default:
				w.log.Warn("frame event channel full, dropping event", "path", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", "error", err)
		}
	}
}
