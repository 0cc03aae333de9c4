package uploads

import (
	"context"

	"cloud.google.com/go/storage"
)

// GCSBucket adapts a Cloud Storage bucket (the Firebase default bucket) to Bucket.
type GCSBucket struct {
	handle *storage.BucketHandle
	name   string
}

// NewGCSBucket wraps handle, which must refer to the bucket called name.
func NewGCSBucket(handle *storage.BucketHandle, name string) *GCSBucket {
	return &GCSBucket{handle: handle, name: name}
}

func (b *GCSBucket) Name() string { return b.name }

func (b *GCSBucket) NewWriter(ctx context.Context, object, contentType string, metadata map[string]string) ObjectWriter {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata
	return w
}
