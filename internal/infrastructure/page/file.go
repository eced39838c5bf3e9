package page

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/affilifind/backend/internal/detect"
)

// FileSource serves a local HTML file as the live document
type FileSource struct {
	path    string
	baseURL string
	tracker tracker
}

// NewFileSource creates a source for path. baseURL stands in for the
// browser location; empty means a file:// URL of the path.
func NewFileSource(path, baseURL string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if baseURL == "" {
		baseURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return &FileSource{path: abs, baseURL: baseURL}, nil
}

// Load reads and parses the file
func (s *FileSource) Load(ctx context.Context) (*detect.Page, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return parse(data, s.baseURL)
}

// Watch reports edits of the file to obs until ctx is done. A changed
// canonical URL is reported as a navigation, any other change as a mutation.
func (s *FileSource) Watch(ctx context.Context, obs Observer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// editors often replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	s.check(ctx, obs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				s.check(ctx, obs)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "path", s.path, "err", err)
		}
	}
}

func (s *FileSource) check(ctx context.Context, obs Observer) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		// mid-replace; the following create event retries
		slog.Debug("read watched file failed", "path", s.path, "err", err)
		return
	}
	if len(data) == 0 {
		// truncated before the write lands
		return
	}
	page, err := parse(data, s.baseURL)
	if err != nil {
		slog.Warn("parse watched file failed", "path", s.path, "err", err)
		return
	}
	notify(obs, s.tracker.observe(page.URL, data), page.URL)
}
