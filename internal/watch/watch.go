package watch

import (
	"context"
	"fmt"
	"github.com/fsnotify/fsnotify"
	"log"
	"time"
)

// DefaultDebounce is used when Run gets a non-positive debounce.
const DefaultDebounce = 200 * time.Millisecond

// Run calls fn after changes in dir settle for debounce, until ctx is done.
// Errors from fn are logged and watching continues.
func Run(ctx context.Context, dir string, debounce time.Duration, fn func(context.Context) error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Printf("[watch] watching %s for changes ...", dir)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[warn] watcher error: %v", err)
		case <-timer.C:
			if err := fn(ctx); err != nil {
				log.Printf("[watch] rebuild error: %v", err)
			}
		}
	}
}
