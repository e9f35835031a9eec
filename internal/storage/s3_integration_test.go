//go:build integration

package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/codeshield-ai/codeshield/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(ctx context.Context, t *testing.T) (*Archive, *testutil.RustFSContainer) {
	t.Helper()

	s3Container := testutil.NewRustFSContainer(ctx, t)

	archive, err := NewArchive(ctx, ArchiveConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-policies",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, archive.EnsureBucket(ctx))

	return archive, s3Container
}

func TestArchiveIntegration_StoreAndDownload(t *testing.T) {
	ctx := context.Background()

	archive, s3Container := newTestArchive(ctx, t)
	defer s3Container.Terminate(ctx)

	content := "# Password Policy\n\nAlways hash passwords with bcrypt."
	key := ObjectKey("password-policy.md", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "policies/2026/03/14/password-policy.md", key)

	require.NoError(t, archive.Store(ctx, key, "text/markdown", []byte(content)))

	url, err := archive.DownloadURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, s3Container.Endpoint())

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, string(body))
}

func TestArchiveIntegration_EnsureBucketIdempotent(t *testing.T) {
	ctx := context.Background()

	archive, s3Container := newTestArchive(ctx, t)
	defer s3Container.Terminate(ctx)

	require.NoError(t, archive.EnsureBucket(ctx))
	require.NoError(t, archive.EnsureBucket(ctx))
}

func TestArchiveIntegration_Delete(t *testing.T) {
	ctx := context.Background()

	archive, s3Container := newTestArchive(ctx, t)
	defer s3Container.Terminate(ctx)

	key := ObjectKey("obsolete.txt", time.Now().UTC())
	require.NoError(t, archive.Store(ctx, key, "text/plain", []byte("outdated guidance")))
	require.NoError(t, archive.Delete(ctx, key))

	url, err := archive.DownloadURL(ctx, key)
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestObjectKey_SanitizesNestedSources(t *testing.T) {
	key := ObjectKey("docs/policies/auth.md", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "policies/2026/01/02/"))
	assert.Contains(t, key, "auth.md")
}
