package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"time"

	"callcenter-platform/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignTTL is how long download links handed to clients stay valid.
const DefaultPresignTTL = 15 * time.Minute

// objects is the subset of *minio.Client the store needs.
type objects interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// Store keeps lead CSV imports and exports in an S3 compatible bucket,
// one prefix per tenant.
type Store struct {
	client objects
	bucket string
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg config.StorageConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return newStore(client, cfg.Bucket), nil
}

func newStore(c objects, bucket string) *Store {
	return &Store{client: c, bucket: bucket, ttl: DefaultPresignTTL, now: time.Now}
}

// EnsureBucket creates the bucket on first start.
func (s *Store) EnsureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Put uploads body under <tenant>/<kind>/<timestamp>-<filename> and
// returns the object key.
func (s *Store) Put(ctx context.Context, tenantID, kind, filename, contentType string, body []byte) (string, error) {
	key := s.key(tenantID, kind, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *Store) key(tenantID, kind, filename string) string {
	name := unsafeChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "file.csv"
	}
	return fmt.Sprintf("%s/%s/%s-%s", tenantID, kind, s.now().UTC().Format("20060102T150405"), name)
}
