package checks

import (
	"context"
	"fmt"
	"time"

	"calsync/core/storage"
)

// CheckBucket verifies that the report archive bucket exists.
func CheckBucket(ctx context.Context, client storage.Client, bucket string) Result {
	const name = "archive"
	if client == nil {
		return disabled(name)
	}

	started := time.Now()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return finish(name, started, fmt.Errorf("failed to check bucket existence: %w", err))
	}
	if !exists {
		return finish(name, started, fmt.Errorf("bucket %s does not exist", bucket))
	}
	return finish(name, started, nil)
}
