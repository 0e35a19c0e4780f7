package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerBaseURL)
	assert.NotEmpty(t, cfg.StateDir)
	assert.Empty(t, cfg.Token)
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	data, err := json.Marshal(map[string]string{
		"server_base_url": "http://example:9000",
		"token":           "tok",
		"state_dir":       "/tmp/state",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	parseJson(cfg)

	assert.Equal(t, "http://example:9000", cfg.ServerBaseURL)
	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, "/tmp/state", cfg.StateDir)
}

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-a", "http://other:1234", "-t", "tok2"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "http://other:1234", cfg.ServerBaseURL)
	assert.Equal(t, "tok2", cfg.Token)
}
