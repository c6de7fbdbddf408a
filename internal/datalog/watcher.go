package datalog

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the rules directory and reloads the evaluator when rule
// files change. Reload failures are logged, not fatal: the evaluator keeps
// the last good rule set until a reload succeeds.
type Watcher struct {
	evaluator *Evaluator
	watcher   *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher for the evaluator's rules directory.
func NewWatcher(evaluator *Evaluator) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		evaluator: evaluator,
		watcher:   fw,
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching for rule file changes.
func (w *Watcher) Start() error {
	if w.evaluator.rulesDir == "" {
		return fmt.Errorf("evaluator has no rules directory configured")
	}
	if err := w.watcher.Add(w.evaluator.rulesDir); err != nil {
		return fmt.Errorf("watch rules directory: %w", err)
	}

	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".rego") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.evaluator.Reload(); err != nil {
				slog.Warn("rule reload failed", "file", event.Name, "error", err)
				continue
			}
			slog.Debug("rules reloaded", "file", event.Name, "rules", w.evaluator.RuleCount())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("rules watcher error", "error", err)
		}
	}
}
