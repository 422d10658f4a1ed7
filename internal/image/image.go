package image

import "context"

// Loader retrieves product image bytes by storage key. Implementations
// exist for the local filesystem and for S3; the server main wires S3
// with the file loader as fallback.
type Loader interface {
	// Load returns the raw image bytes for the key.
	Load(ctx context.Context, key string) ([]byte, error)
}
