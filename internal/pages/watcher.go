package pages

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changed page files and directories under a root.
type Watcher struct {
	root     string
	onChange func(path string)
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher that calls onChange for every relevant event.
func NewWatcher(root string, onChange func(path string)) *Watcher {
	return &Watcher{
		root:     root,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}
}

// Start begins watching root and every directory below it.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Files are watched through their parent directory.
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	log.Printf("Page watcher started for: %s", w.root)
	go w.processEvents()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.watcher != nil {
			err = w.watcher.Close()
		}
	})
	return err
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Page watcher error: %v", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Chmod fires on plain reads on some platforms.
	if event.Op == fsnotify.Chmod {
		return
	}
	relevant := event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	if !relevant {
		return
	}

	info, err := os.Stat(event.Name)
	isDir := err == nil && info.IsDir()
	if event.Op&fsnotify.Create == fsnotify.Create && isDir {
		if err := w.watcher.Add(event.Name); err != nil {
			log.Printf("Page watcher could not watch %s: %v", event.Name, err)
		}
	}
	if isDir || filepath.Ext(event.Name) == ".txt" || err != nil {
		w.onChange(event.Name)
	}
}
