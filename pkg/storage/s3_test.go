package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("images")
	b := GenerateKey("images")

	assert.True(t, strings.HasPrefix(a, "images/"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.Split(a, "/"), 5)
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestURL_CDN(t *testing.T) {
	c, err := NewS3Client(S3Config{Region: "us-east-1", Bucket: "b", CDNURL: "https://cdn.example.com/"})
	require.NoError(t, err)

	url, err := c.URL(context.Background(), "images/x")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/x", url)
}

func TestURL_Presigned(t *testing.T) {
	c, err := NewS3Client(S3Config{
		Region:          "us-east-1",
		Bucket:          "chat",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Endpoint:        "http://localhost:9000",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)

	url, err := c.URL(context.Background(), "images/x")
	require.NoError(t, err)
	assert.Contains(t, url, "localhost:9000/chat/images/x")
	assert.Contains(t, url, "X-Amz-Signature")

	key, uploadURL, err := c.PresignUpload(context.Background(), "images", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "images/"))
	assert.Contains(t, uploadURL, key)
}

func TestBasePath_StaysOutOfStoredKeys(t *testing.T) {
	c, err := NewS3Client(S3Config{
		Region:          "us-east-1",
		Bucket:          "b",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		CDNURL:          "https://cdn.example.com",
		BasePath:        "uploads/",
	})
	require.NoError(t, err)

	key, _, err := c.PresignUpload(context.Background(), "workspaces/1/images", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "workspaces/1/images/"))

	url, err := c.URL(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/"+key, url)
}
