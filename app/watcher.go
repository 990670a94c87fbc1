package main

import (
	"context"
	"fmt"
	"log"

	"github.com/fsnotify/fsnotify"
)

// watchFiles watches the dataset source and, if configured, the custom stop
// words file, rebuilding the pipeline on every change.
func watchFiles(ctx context.Context, proc *processor) {
	paths := []string{proc.params.file}
	if proc.params.stopWords != "" {
		paths = append(paths, proc.params.stopWords)
	}
	if err := watch(ctx, paths, func() error { return proc.rebuild(ctx) }); err != nil {
		log.Printf("[WARN] file watcher failed: %v", err)
	}
}

// watch starts watching files for changes and calls onChange callback.
// Blocks until the context is canceled.
func watch(ctx context.Context, paths []string, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	done := make(chan bool)
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[INFO] stopping watcher for %v, %v", paths, ctx.Err())
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					log.Printf("[DEBUG] file %s changed", event.Name)
					if e := onChange(); e != nil {
						log.Printf("[WARN] failed to rebuild on %s change: %v", event.Name, e)
						continue
					}
					log.Printf("[INFO] pipeline rebuilt on %s change", event.Name)
				}
			case e, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] watcher error: %v", e)
			}
		}
	}()

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to add %s to watcher: %w", path, err)
		}
	}
	<-done
	return nil
}
