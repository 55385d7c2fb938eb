package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "SERVER_PORT", "LBRYNET_URL", "CLAIM_CACHE_TTL", "WRITER_QUEUE_SIZE", "BACKUP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "database/comments.db", cfg.DBPath)
	assert.Equal(t, "5921", cfg.ServerPort)
	assert.Equal(t, "http://localhost:5279", cfg.LbrynetURL)
	assert.Equal(t, 60*time.Second, cfg.ClaimCacheTTL)
	assert.Equal(t, 64, cfg.WriterQueueSize)
	assert.Zero(t, cfg.BackupInterval)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/c.db")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("WRITER_QUEUE_SIZE", "8")
	t.Setenv("BACKUP_INTERVAL", "3600")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "bucket")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/c.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, 8, cfg.WriterQueueSize)
	assert.Equal(t, time.Hour, cfg.BackupInterval)
	assert.True(t, cfg.BackupUploadEnabled())
}
