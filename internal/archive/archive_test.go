package archive

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    map[string][]byte
	types   map[string]string
	buckets map[string]bool
	putErr  error
}

func newFake() *fakeObjects {
	return &fakeObjects{puts: map[string][]byte{}, types: map[string]string{}, buckets: map[string]bool{}}
}

func (f *fakeObjects) PutObject(_ context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.puts[bucket+"/"+object] = b
	f.types[bucket+"/"+object] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func (f *fakeObjects) PresignedGetObject(_ context.Context, bucket, object string, expires time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse("https://files.example.com/" + bucket + "/" + object + "?X-Amz-Expires=" + expires.String())
}

func (f *fakeObjects) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeObjects) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func TestPut_KeysByTenantAndKind(t *testing.T) {
	fake := newFake()
	s := newStore(fake, "lead-files")
	s.now = func() time.Time { return time.Date(2026, 6, 10, 15, 4, 5, 0, time.UTC) }

	key, err := s.Put(context.Background(), "tenant-1", "imports", "../../my leads (1).csv", "text/csv", []byte("phone\n+1"))
	require.NoError(t, err)
	assert.Equal(t, "tenant-1/imports/20260610T150405-my_leads_1_.csv", key)
	assert.Equal(t, "phone\n+1", string(fake.puts["lead-files/"+key]))
	assert.Equal(t, "text/csv", fake.types["lead-files/"+key])
}

func TestPut_WrapsClientError(t *testing.T) {
	fake := newFake()
	fake.putErr = errors.New("connection refused")
	_, err := newStore(fake, "lead-files").Put(context.Background(), "t", "exports", "x.csv", "text/csv", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.putErr)
}

func TestPresignGet(t *testing.T) {
	s := newStore(newFake(), "lead-files")
	u, err := s.PresignGet(context.Background(), "t/exports/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/lead-files/t/exports/a.csv?X-Amz-Expires=15m0s", u)
}

func TestEnsureBucket_CreatesOnce(t *testing.T) {
	fake := newFake()
	s := newStore(fake, "lead-files")
	require.NoError(t, s.EnsureBucket(context.Background()))
	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.True(t, fake.buckets["lead-files"])
}
