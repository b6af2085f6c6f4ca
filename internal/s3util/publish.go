package s3util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ArchiveContentType is the MIME type of published packages.
const ArchiveContentType = "application/zip"

// Presigner is the subset of *s3.PresignClient used here.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Published describes an uploaded archive.
type Published struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ArchiveKey is the object key for a project's published archive.
func ArchiveKey(projectID, fileName string) string {
	return fmt.Sprintf("exports/%s/%s", projectID, fileName)
}

// PublishArchive uploads a zip archive and returns a presigned download
// link valid for ttl.
func PublishArchive(ctx context.Context, b *Bucket, presigner Presigner, key string, data []byte, ttl time.Duration) (*Published, error) {
	start := time.Now()
	if err := b.PutBlob(ctx, key, ArchiveContentType, data); err != nil {
		return nil, err
	}

	url, err := GeneratePresignedURL(ctx, presigner, b.name, key, ttl)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("key", key).
		Int("bytes", len(data)).
		Dur("ttl", ttl).
		Dur("duration", time.Since(start)).
		Msg("Archive published to S3")

	return &Published{Key: key, URL: url, ExpiresAt: start.Add(ttl).UTC()}, nil
}

// GeneratePresignedURL creates a pre-signed GET URL for an S3 object.
func GeneratePresignedURL(ctx context.Context, presigner Presigner, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}

func newBody(data []byte) io.ReadSeeker {
	return bytes.NewReader(data)
}

// ArchivePublisher uploads archives to one bucket and signs links with a
// fixed lifetime.
type ArchivePublisher struct {
	Bucket    *Bucket
	Presigner Presigner
	TTL       time.Duration
}

// Publish uploads data under key and returns its download link.
func (p *ArchivePublisher) Publish(ctx context.Context, key string, data []byte) (*Published, error) {
	return PublishArchive(ctx, p.Bucket, p.Presigner, key, data, p.TTL)
}
