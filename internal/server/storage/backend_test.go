package storage

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/server/sanitize"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fsb, err := NewFSBackend(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	bb, err := NewBoltBackend(filepath.Join(t.TempDir(), "data", "artifacts.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bb.Close() })

	return map[string]Backend{
		"fs":   fsb,
		"bolt": bb,
		"s3":   &S3Backend{client: newFakeS3(), bucket: "vault"},
	}
}

func TestBackends_Contract(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			data := frame([]byte("hello"))

			_, err := b.Read(ctx, "1", Ciphertext)
			assert.ErrorIs(t, err, common.ErrNotFound)

			require.NoError(t, b.Write(ctx, "1", Ciphertext, data))
			require.NoError(t, b.Write(ctx, "1", KeyMaterial, data))

			got, err := b.Read(ctx, "1", Ciphertext)
			require.NoError(t, err)
			assert.Len(t, got, sanitize.MiB)
			assert.Equal(t, data, got[:len(data)])

			km, err := b.Read(ctx, "1", KeyMaterial)
			require.NoError(t, err)
			assert.Len(t, km, sanitize.KeyMaterialSize)

			// overwrite
			data2 := frame([]byte("bye"))
			require.NoError(t, b.Write(ctx, "1", Ciphertext, data2))
			got, err = b.Read(ctx, "1", Ciphertext)
			require.NoError(t, err)
			body, err := unframe(got)
			require.NoError(t, err)
			assert.Equal(t, []byte("bye"), body)

			require.NoError(t, b.Delete(ctx, "1", Ciphertext))
			require.NoError(t, b.Delete(ctx, "1", Ciphertext), "delete is idempotent")
			_, err = b.Read(ctx, "1", Ciphertext)
			assert.ErrorIs(t, err, common.ErrNotFound)

			_, err = b.Read(ctx, "1", KeyMaterial)
			assert.NoError(t, err, "kinds are independent")
		})
	}
}

func TestS3Backend_PutError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = assert.AnError
	b := &S3Backend{client: fake, bucket: "vault"}

	err := b.Write(context.Background(), "1", Ciphertext, frame([]byte("x")))
	assert.ErrorIs(t, err, common.ErrStorageIO)
}

func TestIsS3NotFound(t *testing.T) {
	assert.True(t, isS3NotFound(&types.NoSuchKey{}))
	assert.True(t, isS3NotFound(&types.NotFound{}))
	assert.False(t, isS3NotFound(assert.AnError))
}
