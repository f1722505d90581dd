package rules

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Source supplies the rule set for a program. The production
// implementation is file-backed; tests use StaticSource.
type Source interface {
	Rules(ctx context.Context, program string) (*RuleSet, error)
}

// StaticSource serves a fixed catalog.
type StaticSource struct {
	catalog *Catalog
}

// NewStaticSource wraps a catalog in a Source.
func NewStaticSource(c *Catalog) *StaticSource {
	return &StaticSource{catalog: c}
}

// Rules implements Source.
func (s *StaticSource) Rules(_ context.Context, program string) (*RuleSet, error) {
	return s.catalog.Rules(program)
}

// FileSource serves rule sets from a directory of per-program YAML
// files and can hot-reload them. Reloads swap the whole catalog
// atomically; in-flight pipeline runs keep the rule set they started
// with.
type FileSource struct {
	dir     string
	logger  *zap.Logger
	catalog atomic.Pointer[Catalog]
	watcher *fsnotify.Watcher
}

// NewFileSource loads the directory once and prepares a watcher.
func NewFileSource(dir string, logger *zap.Logger) (*FileSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}

	s := &FileSource{dir: dir, logger: logger}
	s.catalog.Store(catalog)
	return s, nil
}

// Rules implements Source.
func (s *FileSource) Rules(_ context.Context, program string) (*RuleSet, error) {
	return s.catalog.Load().Rules(program)
}

// Watch blocks, reloading the catalog when rule files change, until
// ctx is canceled. A failed reload keeps the previous catalog.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			catalog, err := LoadDir(s.dir)
			if err != nil {
				s.logger.Warn("rule reload failed, keeping previous catalog",
					zap.String("file", event.Name), zap.Error(err))
				continue
			}
			s.catalog.Store(catalog)
			s.logger.Info("rule catalog reloaded",
				zap.String("file", event.Name),
				zap.Strings("programs", catalog.Programs()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("rule watcher error", zap.Error(err))
		}
	}
}
