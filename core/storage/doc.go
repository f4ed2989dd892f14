// Package storage provides an abstraction layer for S3-compatible object storage.
//
// It wraps the MinIO Go client behind the Client interface so that the sync report
// archive can be exercised against core/storage/mocks in unit tests. Both AWS S3 and
// self-hosted MinIO are supported.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
//	    return err
//	}
package storage
