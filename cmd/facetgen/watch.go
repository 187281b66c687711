package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches the burst of events an editor emits for one
// save into a single codegen run.
const debounceDelay = 250 * time.Millisecond

// watchLoop regenerates the provider package whenever a view definition
// file changes. It returns when the context is canceled; generation
// failures are reported and watching continues, so a broken definition
// can be fixed without restarting the tool.
func watchLoop(ctx context.Context, cfg *Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()

	// Watch the directories of the view patterns. Editors replace
	// files on save, so watching the files themselves would lose the
	// watch after the first write.
	var dirs []string
	for _, pattern := range cfg.Views {
		dir := filepath.Dir(pattern)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	fmt.Printf("watching %d directories for view changes\n", len(dirs))

	debounce := time.NewTimer(debounceDelay)
	debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if !cfg.matchesView(ev.Name) {
				continue
			}
			debounce.Reset(debounceDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "facetgen: watch: %v\n", err)
		case <-debounce.C:
			if err := generate(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "facetgen: %v\n", err)
				continue
			}
			fmt.Printf("regenerated %s\n", cfg.Target)
		}
	}
}
