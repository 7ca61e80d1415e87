// Package blob uploads admin-console attachments (news images, flyers) to
// S3-compatible object storage and hands back public URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the prefix of publicly reachable object URLs, e.g. a
	// CDN origin. Falls back to endpoint/bucket when empty.
	PublicBaseURL string
}

// Uploader stores blobs and returns their public URLs.
type Uploader struct {
	cfg    Config
	client s3Client
}

func NewUploader(cfg Config) *Uploader {
	u := &Uploader{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		u.client = newS3Client(cfg)
	}
	return u
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether uploads can be performed.
func (u *Uploader) Configured() bool {
	return u.client != nil
}

// Upload stores the blob under a date-prefixed key derived from name and
// returns its public URL.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	if !u.Configured() {
		return "", fmt.Errorf("object storage not configured")
	}

	key := fmt.Sprintf("uploads/%s/%s", time.Now().UTC().Format("2006/01"), sanitizeName(name))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	return u.publicURL(key), nil
}

func (u *Uploader) publicURL(key string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(u.cfg.PublicBaseURL, "/") + "/" + key
	}
	return strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + key
}

// sanitizeName keeps only the base name and replaces characters that are
// awkward in object keys.
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
