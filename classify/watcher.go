package classify

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a LuaClassifier's script when its file changes on
// disk, grounded on the config/menu-set file watcher a BBS telnet server
// in the same retrieval pack uses for live-reloading its own dialect
// configuration.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching classifier's backing script path and
// reloading it on write events.
func NewWatcher(classifier *LuaClassifier) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(classifier.scriptPath); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go w.watchLoop(classifier)
	return w, nil
}

func (w *Watcher) watchLoop(classifier *LuaClassifier) {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := classifier.reload(); err != nil {
					log.Printf("WARN: classifier reload failed: %v", err)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: classifier watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Stop closes the underlying file watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.watcher.Close()
}
