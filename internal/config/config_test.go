package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth:  AuthConfig{AccessTokenDuration: 24 * time.Hour},
		Store: StoreConfig{Backend: BackendBadger},
		Generator: GeneratorConfig{
			MaxTokens:         4000,
			Timeout:           time.Minute,
			RequestsPerMinute: 5,
		},
	}
}

// clearEnv unsets every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "SERVER_PORT", "ALLOWED_ORIGINS", "STORE_BACKEND",
		"ANTHROPIC_API_KEY", "GENERATOR_BASE_URL", "GENERATOR_MODEL", "GENERATOR_MAX_TOKENS",
		"GENERATOR_TEMPERATURE", "GENERATOR_RPM", "GENERATOR_TIMEOUT", "REDIS_ADDR",
		"REDIS_PASSWORD", "REDIS_DB", "ACCESS_TOKEN_KEY", "ACCESS_TOKEN_DURATION",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }, "invalid environment"},
		{"empty environment", func(c *Config) { c.App.Environment = "" }, "invalid environment"},
		{"case sensitive environment", func(c *Config) { c.App.Environment = "DEVELOPMENT" }, "invalid environment"},
		{"unknown log level", func(c *Config) { c.Logger.Level = "trace" }, "invalid log level"},
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }, "data base path"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "invalid store backend"},
		{"short key", func(c *Config) { c.Auth.AccessTokenKey = []byte("short") }, "32 bytes"},
		{"zero token duration", func(c *Config) { c.Auth.AccessTokenDuration = 0 }, "access token duration"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "read timeout"},
		{"zero generator timeout", func(c *Config) { c.Generator.Timeout = 0 }, "generator timeout"},
		{"zero max tokens", func(c *Config) { c.Generator.MaxTokens = 0 }, "max tokens"},
		{"zero rpm", func(c *Config) { c.Generator.RequestsPerMinute = 0 }, "requests per minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dataDir := t.TempDir()

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env"), "-data-path", dataDir})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, dataDir, cfg.Data.BasePath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Nil(t, cfg.Auth.AccessTokenKey)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.Generator.Model)
	assert.Equal(t, 4000, cfg.Generator.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Generator.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.Generator.RequestsPerMinute)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=7000\nLOG_LEVEL=warn\nSTORE_BACKEND=sqlite\n"), 0o644))

	// Real environment beats the file, flags beat both.
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("GENERATOR_RPM", "9")

	cfg, err := Load([]string{"-env-file", envFile, "-data-path", dir, "-log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 9, cfg.Generator.RequestsPerMinute)
}

func TestLoad_AccessTokenKey(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("ACCESS_TOKEN_KEY", strings.Repeat("ab", 32))

	cfg, err := Load([]string{"-env-file", filepath.Join(dir, "none"), "-data-path", dir})
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.AccessTokenKey, 32)

	t.Setenv("ACCESS_TOKEN_KEY", "not-hex")
	_, err = Load([]string{"-env-file", filepath.Join(dir, "none"), "-data-path", dir})
	assert.ErrorContains(t, err, "invalid access token key")
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load([]string{"-env-file", filepath.Join(dir, "none"), "-data-path", dir, "-read-timeout", "soon"})
	assert.ErrorContains(t, err, "server_read_timeout")
}

func TestLoad_UnknownFlag(t *testing.T) {
	clearEnv(t)
	_, err := Load([]string{"-bogus"})
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a , ,http://b "))
	assert.Nil(t, splitList(""))
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "Talesmith", "data"), cfg.Data.BasePath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "~/my-data"}}
	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Data.BasePath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "relative/path"}}
	require.NoError(t, cfg.expandDataPath())

	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
	assert.Contains(t, cfg.Data.BasePath, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestGetIntConfigValue_Unparseable(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "many")
	assert.Equal(t, 3, getIntConfigValue("", "TEST_INT_KEY", 3))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
TS_ENV=staging
# Comment line
TS_QUOTED="some value"
TS_SINGLE='another value'
  TS_SPACES  =  value with spaces  
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, k := range []string{"TS_ENV", "TS_QUOTED", "TS_SINGLE", "TS_SPACES"} {
		t.Setenv(k, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("TS_ENV"))
	assert.Equal(t, "some value", os.Getenv("TS_QUOTED"))
	assert.Equal(t, "another value", os.Getenv("TS_SINGLE"))
	assert.Equal(t, "value with spaces", os.Getenv("TS_SPACES"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID_KEY=valid\nINVALID LINE\n"), 0o644))

	err := loadEnvFile(envFile)
	assert.ErrorContains(t, err, "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TS_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`TS_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TS_VAR"))
}
