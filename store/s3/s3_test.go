package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagstash/tagstash/store"
)

// fakeClient implements Client over a map, recording keys as seen by S3.
type fakeClient struct {
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (f *fakeClient) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeClient) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &awss3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	s := New(client, "bookmarks", "caches/")

	require.NoError(t, s.Write(ctx, "session-1", []byte("blob")))
	assert.Contains(t, client.objects, "caches/session-1", "prefix should be applied")

	got, err := s.Read(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	require.NoError(t, s.Remove(ctx, "session-1"))
	_, err = s.Read(ctx, "session-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreReadMissing(t *testing.T) {
	s := New(newFakeClient(), "bookmarks", "")
	_, err := s.Read(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreRemoveMissingIsNoError(t *testing.T) {
	s := New(newFakeClient(), "bookmarks", "")
	assert.NoError(t, s.Remove(context.Background(), "nope"))
}
