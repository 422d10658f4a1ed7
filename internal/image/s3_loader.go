package image

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Loader implements Loader for product images held in an S3 bucket.
type s3Loader struct {
	client *s3.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Loader creates an S3-backed image loader.
func NewS3Loader(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-image-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 image loader initialised")

	return &s3Loader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Load fetches the image object for the key under the configured
// prefix.
func (l *s3Loader) Load(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("image key is empty")
	}

	fullKey := l.prefix + key
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		l.logger.Error().Err(err).Str("key", fullKey).Msg("failed to get image object from S3")
		return nil, fmt.Errorf("failed to get image %s from S3: %w", fullKey, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		l.logger.Error().Err(err).Str("key", fullKey).Msg("failed to read image object body")
		return nil, fmt.Errorf("failed to read image %s: %w", fullKey, err)
	}

	l.logger.Debug().Str("key", fullKey).Int("bytes", len(data)).Msg("image loaded from S3")
	return data, nil
}
