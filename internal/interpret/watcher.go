package interpret

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"samvartha/internal/logging"
)

// RuleWatcher reloads a matcher's grammar when its rules file changes
// on disk. A reload that fails to parse leaves the previous grammar in
// effect.
type RuleWatcher struct {
	path    string
	matcher *Matcher
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchRules starts watching path and swapping the grammar into matcher
// on every write. The directory is watched rather than the file so that
// editors that replace the file atomically still trigger reloads.
func WatchRules(path string, matcher *Matcher) (*RuleWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create rules watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch rules dir: %w", err)
	}

	rw := &RuleWatcher{
		path:    path,
		matcher: matcher,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go rw.loop()

	logging.Interpret("watching rules file %s for changes", path)
	return rw, nil
}

func (rw *RuleWatcher) loop() {
	defer close(rw.done)
	for {
		select {
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(rw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			rw.reload()
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryInterpret).Warn("rules watcher error: %v", err)
		}
	}
}

func (rw *RuleWatcher) reload() {
	g, err := LoadGrammar(rw.path)
	if err != nil {
		logging.Get(logging.CategoryInterpret).Warn("rules reload failed, keeping previous grammar: %v", err)
		return
	}
	if err := rw.matcher.SetGrammar(g); err != nil {
		logging.Get(logging.CategoryInterpret).Warn("rules reload failed to compile, keeping previous grammar: %v", err)
		return
	}
	logging.Interpret("rules reloaded from %s (%d rules)", rw.path, len(g.Rules))
}

// Close stops the watcher and waits for its goroutine to exit.
func (rw *RuleWatcher) Close() error {
	err := rw.watcher.Close()
	<-rw.done
	return err
}
