package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// watchSamples starts watching both sample files for changes and calls
// onSamplesChange with the fresh corpora. This is a helper for dynamic
// retraining of the checker without restart.
func watchSamples(ctx context.Context, profanePath, cleanPath string, onSamplesChange func(profane, clean []string) error) {
	var wg sync.WaitGroup
	wg.Add(2)

	reload := func() error {
		profane, err := readSamples(profanePath)
		if err != nil {
			return err
		}
		clean, err := readSamples(cleanPath)
		if err != nil {
			return err
		}
		return onSamplesChange(profane, clean)
	}

	for _, path := range []string{profanePath, cleanPath} {
		go func(path string) {
			defer wg.Done()
			if err := watch(ctx, path, reload); err != nil {
				log.Printf("[WARN] failed to watch file %s: %v", path, err)
			}
		}(path)
	}

	wg.Wait()
}

// watch subscribes to write events for a single file and invokes onChange
func watch(ctx context.Context, path string, onChange func() error) error {
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
				log.Printf("[INFO] stopping watcher for %s, %v", path, ctx.Err())
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					if e := onChange(); e != nil {
						log.Printf("[WARN] failed to reload after change in %s: %v", path, e)
						continue
					}
					log.Printf("[INFO] reloaded samples after change in %s", path)
				}
			case e, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] watcher error: %v", e)
			}
		}
	}()

	err = watcher.Add(path)
	if err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", path, err)
	}
	<-done
	return nil
}

// readSamples loads a sample corpus, one text per line, blanks skipped
func readSamples(path string) ([]string, error) {
	file, err := os.Open(path) //nolint gosec // path is controlled by the app
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var samples []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		samples = append(samples, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return samples, nil
}
