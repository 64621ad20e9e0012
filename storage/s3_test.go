package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBucket struct {
	objects map[string]time.Time
	bodies  map[string][]byte
	types   map[string]string
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string]time.Time{}, bodies: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	m.objects[key] = time.Now()
	m.bodies[key] = body
	m.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key, modified := range m.objects {
		if !strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			LastModified: aws.Time(modified),
			Size:         aws.Int64(int64(len(m.bodies[key]))),
		})
	}
	return out, nil
}

func (m *memoryBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(m.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestArchiveUpload(t *testing.T) {
	bucket := newMemoryBucket()
	a := &Archive{client: bucket, bucket: "exports", baseURL: "https://s3.example.com/"}

	link, err := a.Upload(context.Background(), "exports/research-1.csv", "text/csv", []byte("a,b\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://s3.example.com/exports/exports/research-1.csv", link)
	assert.Equal(t, []byte("a,b\n"), bucket.bodies["exports/research-1.csv"])
	assert.Equal(t, "text/csv", bucket.types["exports/research-1.csv"])
}

func TestArchiveRotate(t *testing.T) {
	bucket := newMemoryBucket()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, key := range []string{"snapshots/1.json", "snapshots/2.json", "snapshots/3.json", "exports/keep.md"} {
		bucket.objects[key] = base.Add(time.Duration(i) * time.Hour)
	}
	a := &Archive{client: bucket, bucket: "b"}

	objects, err := a.List(context.Background(), "snapshots/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "snapshots/3.json", objects[0].Key)

	deleted, err := a.Rotate(context.Background(), "snapshots/", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/1.json"}, deleted)
	assert.Contains(t, bucket.objects, "exports/keep.md")
	assert.Len(t, bucket.objects, 3)

	deleted, err = a.Rotate(context.Background(), "snapshots/", 5)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
