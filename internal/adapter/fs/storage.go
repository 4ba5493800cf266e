package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Storage writes mirrored assets to a local directory served under /images.
type Storage struct {
	dir     string
	logger  *zap.Logger
	once    sync.Once
	initErr error
}

// NewStorage returns a storage rooted at dir. The directory is created on first use.
func NewStorage(dir string, logger *zap.Logger) *Storage {
	return &Storage{
		dir:    dir,
		logger: logger.With(zap.String("component", "filesystem_storage")),
	}
}

// Dir returns the directory the assets are written to.
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) ensureDir() error {
	s.once.Do(func() {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			s.initErr = fmt.Errorf("failed to create image directory: %w", err)
			s.logger.Error("failed to create image directory", zap.String("path", s.dir), zap.Error(err))
			return
		}
		s.logger.Info("image directory ready", zap.String("path", s.dir))
	})
	return s.initErr
}

// Write stores data under filename and returns the local path. Filenames are unique
// by construction, so concurrent writers never share a path.
func (s *Storage) Write(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filename)
	// O_EXCL keeps a file from ever being overwritten.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.Debug("asset stored", zap.String("file", filename), zap.Int("bytes", len(data)))
	return path, nil
}
