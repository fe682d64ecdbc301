package repository

import "context"

// StorageRepository publishes output files to object storage.
type StorageRepository interface {
	GetCallerIdentity(ctx context.Context, profile string) (string, error)
	Upload(ctx context.Context, profile, bucket, key, path string) (string, error)
}
