package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("SUBMISSIONS_AUTH_JWT_SECRET", "secret")
	t.Setenv("SUBMISSIONS_SERVER_PORT", "8081")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "Submission", cfg.DynamoDB.Tables().Submission)
	assert.Equal(t, 1, cfg.DynamoDB.Store().NumShards)
	assert.True(t, cfg.DynamoDB.CascadeDelete)
	assert.Equal(t, "submission-index", cfg.Search.Client().Index)
	assert.Equal(t, "submission-api", cfg.Publisher().Originator)
	assert.Equal(t, 10*time.Second, cfg.Challenge.Client().Timeout)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  jwt_secret: from-file
search:
  hosts: ["http://es-1:9200", "http://es-2:9200"]
dynamodb:
  num_shards: 4
  cascade_delete: false
scorecards:
  b5b1f0a5-8d6e-4b4a-9f3c-2a1e0d9c8b7a: 30001610
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Len(t, cfg.Search.Hosts, 2)
	assert.Equal(t, 4, cfg.DynamoDB.NumShards)
	assert.False(t, cfg.DynamoDB.CascadeDelete)
	assert.Equal(t, int64(30001610), cfg.ScoreCards["b5b1f0a5-8d6e-4b4a-9f3c-2a1e0d9c8b7a"])
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 3000},
			Auth:      AuthConfig{JWTSecret: "s"},
			Search:    SearchConfig{Index: "i"},
			Challenge: ChallengeConfig{BaseURL: "http://c"},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Search.Index = ""
	assert.Error(t, cfg.Validate())
}
