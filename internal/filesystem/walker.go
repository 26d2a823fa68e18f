package filesystem

import (
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

// Walker walks the filesystem and finds files to scan
type Walker struct {
	logger  *zap.Logger
	exclude map[string]bool
}

// NewWalker creates a new filesystem walker. Directories whose name is
// in exclude are never entered.
func NewWalker(exclude []string, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Build exclude map for fast lookup
	excluded := make(map[string]bool, len(exclude))
	for _, dir := range exclude {
		excluded[dir] = true
	}

	return &Walker{
		logger:  logger,
		exclude: excluded,
	}
}

// Walk calls fn for every regular file under root. Without recursive
// only the direct children of root are visited. Access errors are
// logged and skipped; an error returned by fn stops the walk.
func (w *Walker) Walk(root string, recursive bool, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil // Continue walking
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || w.exclude[d.Name()] {
				w.logger.Debug("Skipping directory", zap.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}

// IsExcluded reports whether a directory name is excluded
func (w *Walker) IsExcluded(name string) bool {
	return w.exclude[name]
}

// GetExtension returns the file extension without dot
func GetExtension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
