package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/config"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	key := ObjectKey("/var/backups/comments.db", now)
	assert.True(t, strings.HasPrefix(key, "backups/2026-03-01/"), key)
	assert.True(t, strings.HasSuffix(key, "-comments.db"), key)
	assert.NotEqual(t, key, ObjectKey("/var/backups/comments.db", now))
}

func TestNewBackupUploader_RequiresConfig(t *testing.T) {
	_, err := NewBackupUploader(context.Background(), &config.Config{R2AccountID: "acct"})
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "comments.db")
	require.NoError(t, os.WriteFile(path, []byte("sqlite bytes"), 0o644))

	u, err := newBackupUploader(context.Background(), srv.URL, "key", "secret", "bucket")
	require.NoError(t, err)

	key, err := u.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/bucket/"+key, gotPath)
	assert.Contains(t, string(gotBody), "sqlite bytes")
}
