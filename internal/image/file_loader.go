package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for images stored in a local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader reading images from dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "image-loader").Logger(),
	}
}

// Load reads the image file for the key. Keys are relative names; a key
// escaping the image directory is rejected.
func (l *fileLoader) Load(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("image key is empty")
	}

	path := filepath.Join(l.dir, filepath.Clean("/"+key))
	if !strings.HasPrefix(path, filepath.Clean(l.dir)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("image key %q escapes image directory", key)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("key", key).Msg("failed to read image file")
		return nil, fmt.Errorf("failed to read image %s: %w", key, err)
	}

	l.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("image loaded from file")
	return data, nil
}
