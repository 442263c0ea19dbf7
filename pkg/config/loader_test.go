package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/pkg/config"
)

type sampleConfig struct {
	APIURL   string        `env:"API_URL,required"`
	Port     int           `env:"PORT" envDefault:"3001"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Triggers []string      `env:"TRIGGERS" envSeparator:","`
}

func TestLoad(t *testing.T) {
	t.Setenv("CFGTEST_API_URL", "http://localhost/api.php")
	t.Setenv("CFGTEST_TRIGGERS", "fotos,pics")

	var cfg sampleConfig
	require.NoError(t, config.Load(&cfg, config.WithPrefix("CFGTEST_")))

	assert.Equal(t, "http://localhost/api.php", cfg.APIURL)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"fotos", "pics"}, cfg.Triggers)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg sampleConfig
	err := config.Load(&cfg, config.WithPrefix("CFGTEST_MISSING_"))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg, config.WithPrefix("CFGTEST_MISSING_")) })
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGFILE_API_URL=http://file/api.php\nCFGFILE_PORT=8080\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("CFGFILE_API_URL")
		_ = os.Unsetenv("CFGFILE_PORT")
	})

	var cfg sampleConfig
	require.NoError(t, config.Load(&cfg, config.WithEnvFiles(path), config.WithPrefix("CFGFILE_")))
	assert.Equal(t, "http://file/api.php", cfg.APIURL)
	assert.Equal(t, 8080, cfg.Port)

	err := config.Load(&cfg, config.WithEnvFiles(filepath.Join(dir, "missing.env")))
	assert.ErrorIs(t, err, config.ErrEnvFile)
}

func TestLoad_NilPointer(t *testing.T) {
	t.Parallel()
	var cfg *sampleConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}
