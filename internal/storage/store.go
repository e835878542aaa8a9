// Package storage handles payment proof artifacts: decoding the inline
// upload, deriving a collision-free storage key, and talking to the
// object storage service.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrBadProofPayload marks a malformed inline-encoded file (no data
// section, or invalid base64). It is an input error; nothing was uploaded.
var ErrBadProofPayload = errors.New("invalid payment proof payload")

// ErrBucketNotFound is returned by ObjectStore implementations when the
// backing container does not exist at upload time.
var ErrBucketNotFound = errors.New("storage bucket not found")

// ObjectStore is the capability interface over the object storage
// service. Implementations are substituted in tests.
type ObjectStore interface {
	// EnsureBucket creates the backing container if it is missing.
	EnsureBucket(ctx context.Context) error
	// Upload stores data under key. Returns ErrBucketNotFound when the
	// container is absent.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// PublicURL resolves the publicly dereferenceable URL for key.
	PublicURL(key string) string
}

// BucketConfigError reports a missing or misconfigured storage bucket.
// It is an infrastructure error: the operator message carries a setup
// checklist while callers show only the generic user message.
type BucketConfigError struct {
	Bucket string
	Err    error
}

func (e *BucketConfigError) Error() string {
	return fmt.Sprintf("storage bucket %q is not available: %v", e.Bucket, e.Err)
}

func (e *BucketConfigError) Unwrap() error {
	return e.Err
}

// OperatorMessage is the remediation checklist logged for operators.
func (e *BucketConfigError) OperatorMessage() string {
	return fmt.Sprintf(`storage bucket %q was not found. Manual setup:
  1. Open the storage dashboard for this project.
  2. Create a public bucket named %q.
  3. Allow authenticated uploads and public reads on the bucket.
  4. Re-run the failed submission.`, e.Bucket, e.Bucket)
}

// UserMessage is the generic, non-alarming text shown to submitters.
func (e *BucketConfigError) UserMessage() string {
	return "Payment proof uploads are temporarily unavailable while we finish setting up storage. Please try again later or contact support."
}
