package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokemajumder/rrweb-server/internal/config"
)

func TestPresignGetObject_Offline(t *testing.T) {
	cfg := &config.Config{
		S3Region:           "us-east-1",
		S3Endpoint:         "http://minio:9000",
		S3ExternalEndpoint: "http://localhost:9000",
		S3AccessKeyID:      "minioadmin",
		S3SecretAccessKey:  "minioadmin",
		S3UsePathStyle:     true,
	}
	c, err := NewS3Client(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	raw, err := c.PresignGetObject(context.Background(), "b1", "sessions/s1_1700000000000_abc.json", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/b1/sessions/s1_1700000000000_abc.json", u.Path)

	q := u.Query()
	assert.Equal(t, "3600", q.Get("X-Amz-Expires"))
	assert.Equal(t, "AWS4-HMAC-SHA256", q.Get("X-Amz-Algorithm"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("X-Amz-Credential"), "minioadmin/")
}

func TestPresignGetObject_DefaultsExternalEndpoint(t *testing.T) {
	cfg := &config.Config{
		S3Region:          "us-east-1",
		S3Endpoint:        "http://minio:9000",
		S3AccessKeyID:     "k",
		S3SecretAccessKey: "s",
		S3UsePathStyle:    true,
	}
	c, err := NewS3Client(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	raw, err := c.PresignGetObject(context.Background(), "b1", "sessions/x.json", time.Hour)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "minio:9000", u.Host)
}

// Runs against a real S3-compatible endpoint when S3_TEST_ENDPOINT is set,
// e.g. http://localhost:9000 with minioadmin/minioadmin.
func TestS3Client_Integration(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_TEST_ENDPOINT not set")
	}

	cfg := &config.Config{
		S3Region:          "us-east-1",
		S3Endpoint:        endpoint,
		S3AccessKeyID:     envOr("S3_TEST_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: envOr("S3_TEST_SECRET_ACCESS_KEY", "minioadmin"),
		S3UsePathStyle:    true,
	}
	ctx := context.Background()
	c, err := NewS3Client(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	bucket := "rrweb-it-" + uuid.NewString()[:8]
	require.NoError(t, c.EnsureBuckets(ctx, []string{bucket}))
	require.NoError(t, c.EnsureBuckets(ctx, []string{bucket}))

	key := "sessions/it_" + uuid.NewString() + ".json"
	body := []byte(`{"sessionId":"it","events":[{"type":2}]}`)
	require.NoError(t, c.PutObject(ctx, bucket, key, body, "application/json"))

	signed, err := c.PresignGetObject(ctx, bucket, key, time.Hour)
	require.NoError(t, err)

	resp, err := http.Get(signed)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
