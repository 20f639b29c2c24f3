package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates the cached snapshot of a locale whenever a file below
// root/<locale> changes. It blocks until ctx is done.
func (s *Service) Watch(ctx context.Context, root string) error {
	if s.config.Strategy != StrategyCached {
		s.logger.Info().Str("strategy", string(s.config.Strategy)).Msg("Content watcher not started: snapshots are not cached")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.watchTree(watcher, root); err != nil {
		return err
	}

	s.logger.Info().Str("root", root).Msg("Watching content directory")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, root, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("Content watcher error")
		}
	}
}

func (s *Service) handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	// New directories are not covered by the watches added at startup
	if event.Has(fsnotify.Create) {
		if err := s.watchTree(watcher, event.Name); err != nil {
			s.logger.Debug().Err(err).Str("path", event.Name).Msg("Not watching created path")
		}
	}

	locale := localeOf(root, event.Name)
	if locale == "" {
		// Changes of the root itself can affect any locale
		s.Invalidate()
		return
	}

	s.logger.Debug().
		Str("locale", locale).
		Str("path", event.Name).
		Str("op", event.Op.String()).
		Msg("Content changed")
	s.Invalidate(locale)
}

// watchTree adds dir and every directory below it
func (s *Service) watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// localeOf returns the first path segment of name below root, "" for root itself
func localeOf(root, name string) string {
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	locale, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return locale
}
