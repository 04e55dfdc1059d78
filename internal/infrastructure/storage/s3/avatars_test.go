package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AvatarStore {
	t.Helper()
	store, err := NewAvatarStore(context.Background(), Config{
		Bucket:          "avatars",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		PresignTTL:      5 * time.Minute,
	})
	require.NoError(t, err)
	return store
}

func TestAvatarStore_PresignUpload(t *testing.T) {
	store := newTestStore(t)

	raw, ttl, err := store.PresignUpload(context.Background(), "avatars/user/abc/pic.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/avatars/avatars/user/abc/pic.png"), u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestAvatarStore_PublicURL(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "http://localhost:9000/avatars/a/b.png", store.PublicURL("/a/b.png"))

	cdn, err := NewAvatarStore(context.Background(), Config{
		Bucket: "avatars", Region: "eu-west-1", AccessKeyID: "k", SecretAccessKey: "s",
		PublicBaseURL: "https://cdn.example/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a/b.png", cdn.PublicURL("a/b.png"))
}

func TestNewAvatarStore_RequiresBucket(t *testing.T) {
	_, err := NewAvatarStore(context.Background(), Config{Region: "us-east-1"})
	assert.Error(t, err)
}
