package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

// Вспомогательные хелперы.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Хеш для "testpass" (bcrypt.MinCost, чтобы тесты были быстрыми).
func testHash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("testpass"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// Полный корректный YAML (без зависимости от дефолтов).
const sampleYAML = `
env: "dev"
http:
  host: "127.0.0.1"
  port: "9000"
  cors_origins: ["https://app.example.com"]
timeouts:
  service: "3s"
auth:
  jwt_secret: "dev-secret"
  token_ttl: "10m"
  issuer: "issuerX"
  users:
    - username: "testuser"
      password: "testpass"
      display_name: "Test User"
generation:
  timeout: "45s"
  backends:
    post: "anthropic"
  usd_to_inr: 83.5
openai:
  api_key: "sk-openai"
  model: "gpt-test"
anthropic:
  api_key: "sk-ant"
  max_tokens: 512
insights:
  pinecone_host: "muniverse.svc.pinecone.io"
  api_key: "pc-key"
  top_k: 3
db:
  url: "mongodb://localhost:27017/orange_strategy_db"
conversations:
  limit: 7
ratelimit:
  rps: 2
  burst: 4
brands:
  Acme: "Acme builds rockets."
`

// Минимально валидный YAML.
const minimalYAML = `
auth:
  jwt_secret: "min-secret"
  users:
    - username: "testuser"
      password: "testpass"
`

const brokenYAML = `
auth:
  jwt_secret: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr())
	require.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)

	require.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 10*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, "issuerX", cfg.Auth.Issuer)
	require.Len(t, cfg.Auth.Users, 1)
	require.Equal(t, "Test User", cfg.Auth.Users[0].DisplayName)

	require.Equal(t, 45*time.Second, cfg.Generation.Timeout)
	require.Equal(t, map[string]string{"post": "anthropic"}, cfg.Generation.Backends)
	require.InDelta(t, 83.5, cfg.Generation.USDToINR, 1e-9)

	require.Equal(t, "gpt-test", cfg.OpenAI.Model)
	require.Equal(t, "text-embedding-ada-002", cfg.OpenAI.EmbeddingModel)
	require.Equal(t, int64(512), cfg.Anthropic.MaxTokens)

	require.True(t, cfg.Insights.Enabled())
	require.Equal(t, 3, cfg.Insights.TopK)
	require.Equal(t, 10, cfg.Insights.FallbackTopK)
	require.Equal(t, 180*24*time.Hour, cfg.Insights.MaxAge)

	require.Equal(t, "mongodb://localhost:27017/orange_strategy_db", cfg.DB.URL)
	require.Equal(t, 7, cfg.Conversations.Limit)
	require.InDelta(t, 2.0, cfg.RateLimit.RPS, 1e-9)
	require.Equal(t, 4, cfg.RateLimit.Burst)
	require.Equal(t, "Acme builds rockets.", cfg.Brands["Acme"])
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, EnvLocal, cfg.Env)
	require.Equal(t, "0.0.0.0:8000", cfg.HTTP.Addr())
	require.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, "orange-api", cfg.Auth.Issuer)
	require.Equal(t, 2*time.Minute, cfg.Generation.Timeout)
	require.InDelta(t, 86.0, cfg.Generation.USDToINR, 1e-9)
	require.Equal(t, "gpt-4o-2024-05-13", cfg.OpenAI.Model)
	require.Equal(t, "https://api.openai.com", cfg.OpenAI.BaseURL)
	require.InDelta(t, 0.0025, cfg.OpenAI.InputPer1K, 1e-12)
	require.InDelta(t, 0.024, cfg.Anthropic.OutputPer1K, 1e-12)
	require.False(t, cfg.Insights.Enabled())
	require.Empty(t, cfg.DB.URL)
	require.Equal(t, 5, cfg.Conversations.Limit)
	require.Zero(t, cfg.RateLimit.RPS)
}

func TestLoad_WithExplicitPath_FileDoesNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat failed")
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)

	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "min-secret", cfg.Auth.JWTSecret)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)

	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("GENERATION_TIMEOUT", "5s")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.Auth.JWTSecret)
	require.Equal(t, "9999", cfg.HTTP.Port)
	require.Equal(t, 5*time.Second, cfg.Generation.Timeout)
}

func TestLoad_EnvOnly_FailsWithoutUsers(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "env-secret")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.users")
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

func validConfig(t *testing.T) Config {
	t.Helper()

	return Config{
		Env: EnvProd,
		Auth: AuthConfig{
			JWTSecret: "0123456789abcdef0123456789abcdef",
			TokenTTL:  30 * time.Minute,
			Users:     []UserConfig{{Username: "testuser", PasswordHash: testHash(t)}},
		},
		Generation:    GenerationConfig{Timeout: time.Minute, USDToINR: 86},
		OpenAI:        OpenAIConfig{APIKey: "sk-openai"},
		Anthropic:     AnthropicConfig{APIKey: "sk-ant"},
		Conversations: ConversationsConfig{Limit: 5},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"unknown_env", func(c *Config) { c.Env = "staging" }, "env must be one of"},
		{"short_secret_prod", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least 32 bytes"},
		{"placeholder_secret_dev", func(c *Config) { c.Env = EnvDev; c.Auth.JWTSecret = "your_secret_key" }, ""},
		{"empty_secret", func(c *Config) { c.Auth.JWTSecret = "  " }, "jwt_secret is required"},
		{"zero_ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "token_ttl"},
		{"no_users", func(c *Config) { c.Auth.Users = nil }, "at least one user"},
		{"user_without_name", func(c *Config) { c.Auth.Users[0].Username = "" }, "username is required"},
		{"duplicate_user", func(c *Config) { c.Auth.Users = append(c.Auth.Users, c.Auth.Users[0]) }, "duplicate username"},
		{"bad_hash", func(c *Config) { c.Auth.Users[0].PasswordHash = "plain" }, "not a bcrypt hash"},
		{"plaintext_in_prod", func(c *Config) {
			c.Auth.Users[0].PasswordHash = ""
			c.Auth.Users[0].Password = "testpass"
		}, "plaintext password"},
		{"plaintext_in_local", func(c *Config) {
			c.Env = EnvLocal
			c.Auth.Users[0].PasswordHash = ""
			c.Auth.Users[0].Password = "testpass"
		}, ""},
		{"no_password", func(c *Config) { c.Auth.Users[0].PasswordHash = "" }, "password_hash or password"},
		{"zero_generation_timeout", func(c *Config) { c.Generation.Timeout = 0 }, "generation.timeout"},
		{"unknown_backend", func(c *Config) { c.Generation.Backends = map[string]string{"post": "mistral"} }, "unknown backend"},
		{"unknown_kind", func(c *Config) { c.Generation.Backends = map[string]string{"tweet": BackendOpenAI} }, "unknown kind"},
		{"missing_openai_key_prod", func(c *Config) { c.OpenAI.APIKey = "" }, "openai.api_key"},
		{"missing_anthropic_key_prod", func(c *Config) { c.Anthropic.APIKey = "" }, "anthropic.api_key"},
		{"anthropic_unused_prod", func(c *Config) {
			c.Anthropic.APIKey = ""
			c.Generation.Backends = map[string]string{"reel": BackendOpenAI, "script": BackendOpenAI}
		}, ""},
		{"missing_keys_dev", func(c *Config) {
			c.Env = EnvDev
			c.OpenAI.APIKey = ""
			c.Anthropic.APIKey = ""
		}, ""},
		{"conversations_limit_too_big", func(c *Config) { c.Conversations.Limit = 51 }, "conversations.limit"},
		{"insights_without_topk", func(c *Config) { c.Insights = InsightsConfig{PineconeHost: "h", MaxAge: time.Hour} }, "top_k"},
		{"insights_cache_without_ttl", func(c *Config) {
			c.Insights = InsightsConfig{PineconeHost: "h", TopK: 7, FallbackTopK: 10, MaxAge: time.Hour, RedisURL: "redis://localhost:6379/0"}
		}, "cache_ttl"},
		{"db_unknown_scheme", func(c *Config) { c.DB.URL = "mysql://localhost/db" }, "db.url"},
		{"db_postgres", func(c *Config) { c.DB.URL = "postgres://u:p@localhost:5432/orange" }, ""},
		{"ratelimit_without_burst", func(c *Config) { c.RateLimit = RateLimitConfig{RPS: 1} }, "ratelimit.burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig(t)
			tt.mutate(&c)

			err := c.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBackendFor_Defaults(t *testing.T) {
	t.Parallel()

	var g GenerationConfig
	require.Equal(t, BackendAnthropic, g.BackendFor(models.KindReel))
	require.Equal(t, BackendAnthropic, g.BackendFor(models.KindScript))
	require.Equal(t, BackendOpenAI, g.BackendFor(models.KindPost))
	require.Equal(t, BackendOpenAI, g.BackendFor(models.KindChat))

	g.Backends = map[string]string{"post": BackendAnthropic}
	require.Equal(t, BackendAnthropic, g.BackendFor(models.KindPost))
}

func TestDBConfig_Driver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"", DriverMemory},
		{"mongodb://localhost:27017/orange", DriverMongo},
		{"mongodb+srv://u:p@cluster.example.net/orange", DriverMongo},
		{"postgres://u:p@localhost:5432/orange?sslmode=disable", DriverPostgres},
		{"PostgreSQL://localhost/orange", DriverPostgres},
		{"redis://localhost:6379", ""},
		{"localhost:27017", ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, DBConfig{URL: tt.url}.Driver(), tt.url)
	}
}
