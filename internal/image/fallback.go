package image

import (
	"context"

	"github.com/rs/zerolog"
)

// fallbackLoader tries a primary loader and falls back to a secondary
// one when the primary cannot serve the key. Used to front S3 with the
// local image directory as safety net.
type fallbackLoader struct {
	primary   Loader
	secondary Loader
	logger    zerolog.Logger
}

// NewFallbackLoader creates a loader that consults primary first.
func NewFallbackLoader(primary, secondary Loader, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "image-fallback").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := l.primary.Load(ctx, key)
	if err == nil {
		return data, nil
	}

	l.logger.Warn().Err(err).Str("key", key).Msg("primary image source failed, trying fallback")
	return l.secondary.Load(ctx, key)
}
