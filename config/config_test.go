package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", conf.Server.Address)
	assert.Equal(t, int64(32), conf.Server.MaxUploadMB)
	assert.Equal(t, "stego.bmp", conf.Stego.OutputName)
	assert.Equal(t, "decode", conf.Stego.DecodeName)
	assert.Equal(t, ".txt", conf.Stego.ExpectedExtension)
	assert.False(t, conf.Stego.TrustExtension)
	assert.Equal(t, 40.0, conf.Stego.MinPSNR)

	opts := conf.StegoOptions()
	assert.Equal(t, ".txt", opts.ExpectedExtension)
	assert.False(t, opts.TrustExtension)
	assert.Equal(t, 40.0, opts.MinPSNR)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: "127.0.0.1:9000"
  max_upload_mb: 8
stego:
  output_name: hidden.bmp
  trust_extension: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", conf.Server.Address)
	assert.Equal(t, int64(8), conf.Server.MaxUploadMB)
	assert.Equal(t, "hidden.bmp", conf.Stego.OutputName)
	assert.True(t, conf.Stego.TrustExtension)
	// untouched keys keep their defaults
	assert.Equal(t, "decode", conf.Stego.DecodeName)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.Server.AllowOrigins)
	assert.Equal(t, "debug", conf.Log.Level)
}

func TestLoad_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "9191")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9191", conf.Server.Address)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "")
	dir := t.TempDir()

	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "server: [unterminated"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad extension", "stego:\n  expected_extension: txt\n"},
		{"bad upload size", "server:\n  max_upload_mb: 0\n"},
		{"negative psnr floor", "stego:\n  min_psnr: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "saved.yaml")

	conf := Default()
	conf.Stego.ExpectedExtension = ".md"
	conf.Log.Development = true
	require.NoError(t, Save(path, conf))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, conf, loaded)
}

func TestNewLogger(t *testing.T) {
	conf := Default()
	log, err := conf.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.False(t, log.Core().Enabled(-1), "debug must be off at info level")
}
