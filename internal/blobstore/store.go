// Package blobstore is the out-of-scope object-storage collaborator
// (spec §1): it issues time-limited upload URLs and serves
// publicly-readable download URLs for stored videos. The core only ever
// calls the two methods below; everything else about the blob store
// (encoding, retention, CDN) is out of scope.
//
// Grounded on original_source/backend/app/s3_upload.py, which presigns a
// PUT URL keyed by a generated object key and returns the matching
// public GET URL.
package blobstore

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// PresignedUpload is returned by the POST /upload-url endpoint (spec §6).
type PresignedUpload struct {
	UploadURL string
	Key       string
	Bucket    string
}

// Store is the object storage contract.
type Store interface {
	// PresignUpload issues a time-limited PUT URL for a new object keyed
	// under the caller's namespace.
	PresignUpload(userID, filename, contentType string) (PresignedUpload, error)
	// PublicURL returns the public, indefinitely-readable GET URL for an
	// already-uploaded object key.
	PublicURL(key string) string
}

// store is a minimal concrete Store pointed at a single public bucket
// endpoint. It does not itself talk to a cloud SDK — wiring a real
// provider (S3, GCS) is an infrastructure concern outside this spec's
// posting-pipeline core; this adapter only has to satisfy the two-method
// contract the core depends on.
type store struct {
	bucket      string
	endpoint    string // base URL the bucket is publicly reachable at
	presignTTL  time.Duration
}

// New builds a Store backed by a single bucket reachable at endpoint
// (e.g. "https://cdn.example.com"); PresignUpload and PublicURL append the
// bucket name as the first path segment.
func New(bucket, endpoint string) Store {
	return &store{bucket: bucket, endpoint: endpoint, presignTTL: 15 * time.Minute}
}

func (s *store) PresignUpload(userID, filename, contentType string) (PresignedUpload, error) {
	key := fmt.Sprintf("%s/%s-%s", userID, uuid.NewString(), url.PathEscape(filename))
	expires := time.Now().Add(s.presignTTL).Unix()

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("blobstore: invalid endpoint: %w", err)
	}
	u.Path = fmt.Sprintf("%s/%s", s.bucket, key)
	q := u.Query()
	q.Set("upload", "1")
	q.Set("content_type", contentType)
	q.Set("expires", fmt.Sprintf("%d", expires))
	u.RawQuery = q.Encode()

	return PresignedUpload{
		UploadURL: u.String(),
		Key:       key,
		Bucket:    s.bucket,
	}, nil
}

func (s *store) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}
