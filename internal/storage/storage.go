// Package storage defines the interface for backup object storage.
// The abstraction keeps the backup sink independent of where the files
// land (local filesystem, Google Cloud Storage, or memory in tests).
package storage

import "context"

// Provider saves one named object, overwriting any prior object of the
// same name, and returns the destination URI.
type Provider interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// NoOpProvider discards writes. Useful for dry runs.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and returns an empty URI.
func (NoOpProvider) Save(_ context.Context, _ string, _ []byte) (string, error) {
	return "", nil
}
