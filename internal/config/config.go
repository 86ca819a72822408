// config описывает конфигурацию orange-api: загрузка из YAML/ENV с предсказуемым приоритетом и валидация.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

// Поддерживаемые окружения.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Имена бэкендов генерации.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// minProdSecretLen — минимальная длина ключа подписи токенов в prod.
const minProdSecretLen = 32

// placeholderSecrets — значения, которые нельзя использовать как ключ подписи в prod.
var placeholderSecrets = map[string]struct{}{
	"your_secret_key": {},
	"secret":          {},
	"changeme":        {},
}

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь (флаг --config);
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. только переменные окружения.
type Config struct {
	Env           string              `yaml:"env" env:"ENV" env-default:"local"`
	HTTP          HTTPConfig          `yaml:"http"`
	Timeouts      TimeoutConfig       `yaml:"timeouts"`
	Auth          AuthConfig          `yaml:"auth"`
	Generation    GenerationConfig    `yaml:"generation"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Anthropic     AnthropicConfig     `yaml:"anthropic"`
	Insights      InsightsConfig      `yaml:"insights"`
	DB            DBConfig            `yaml:"db"`
	Conversations ConversationsConfig `yaml:"conversations"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	// Brands дополняет/переопределяет встроенные контексты брендов.
	Brands map[string]string `yaml:"brands"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host        string   `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port        string   `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// TimeoutConfig — дедлайн обработки служебных запросов (всё, кроме генерации).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// AuthConfig — параметры выпуска токенов и таблица пользователей.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"30m"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"orange-api"`
	Users     []UserConfig  `yaml:"users"`
}

// UserConfig — запись таблицы учётных данных.
// Задаётся либо PasswordHash (bcrypt), либо Password (только local/dev).
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Password     string `yaml:"password"`
	DisplayName  string `yaml:"display_name"`
}

// GenerationConfig — общие параметры генерации.
type GenerationConfig struct {
	// Timeout ограничивает один вызов внешнего API.
	Timeout time.Duration `yaml:"timeout" env:"GENERATION_TIMEOUT" env-default:"2m"`
	// Backends: kind -> openai|anthropic. Незаданные виды берут значения по умолчанию.
	Backends map[string]string `yaml:"backends" env:"GENERATION_BACKENDS"`
	USDToINR float64           `yaml:"usd_to_inr" env:"USD_TO_INR" env-default:"86"`
}

// BackendFor возвращает бэкенд для вида контента: сначала generation.backends,
// затем значение по умолчанию (reel и script -> anthropic, остальные -> openai).
func (g GenerationConfig) BackendFor(kind models.Kind) string {
	if b, ok := g.Backends[string(kind)]; ok && b != "" {
		return b
	}

	switch kind {
	case models.KindReel, models.KindScript:
		return BackendAnthropic
	default:
		return BackendOpenAI
	}
}

// OpenAIConfig — доступ к OpenAI (chat completions и embeddings).
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL        string  `yaml:"base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com"`
	Model          string  `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-2024-05-13"`
	EmbeddingModel string  `yaml:"embedding_model" env:"OPENAI_EMBEDDING_MODEL" env-default:"text-embedding-ada-002"`
	InputPer1K     float64 `yaml:"input_per_1k" env:"OPENAI_INPUT_PER_1K" env-default:"0.0025"`
	OutputPer1K    float64 `yaml:"output_per_1k" env:"OPENAI_OUTPUT_PER_1K" env-default:"0.0075"`
}

// AnthropicConfig — доступ к Anthropic Messages API.
type AnthropicConfig struct {
	APIKey      string  `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	BaseURL     string  `yaml:"base_url" env:"ANTHROPIC_BASE_URL"`
	Model       string  `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-3-5-sonnet-20240620"`
	MaxTokens   int64   `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"1024"`
	InputPer1K  float64 `yaml:"input_per_1k" env:"ANTHROPIC_INPUT_PER_1K" env-default:"0.008"`
	OutputPer1K float64 `yaml:"output_per_1k" env:"ANTHROPIC_OUTPUT_PER_1K" env-default:"0.024"`
}

// InsightsConfig — поиск рыночных новостей в векторном индексе.
// Пустой PineconeHost отключает поиск.
type InsightsConfig struct {
	PineconeHost string        `yaml:"pinecone_host" env:"PINECONE_HOST"`
	APIKey       string        `yaml:"api_key" env:"PINECONE_API_KEY"`
	TopK         int           `yaml:"top_k" env:"INSIGHTS_TOP_K" env-default:"7"`
	FallbackTopK int           `yaml:"fallback_top_k" env:"INSIGHTS_FALLBACK_TOP_K" env-default:"10"`
	MaxAge       time.Duration `yaml:"max_age" env:"INSIGHTS_MAX_AGE" env-default:"4320h"`
	// RedisURL включает кэш результатов поиска (redis://:pass@host:6379/0).
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"INSIGHTS_CACHE_TTL" env-default:"1h"`
}

// Enabled сообщает, настроен ли поиск.
func (i InsightsConfig) Enabled() bool {
	return i.PineconeHost != ""
}

// Драйверы хранилища диалогов, определяются схемой db.url.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// DBConfig — подключение к хранилищу диалогов.
// mongodb:// и mongodb+srv:// выбирают MongoDB, postgres:// и postgresql:// выбирают PostgreSQL.
// Пустой URL включает хранилище в памяти.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// Driver возвращает драйвер по схеме URL или "" для неизвестной схемы.
func (d DBConfig) Driver() string {
	if d.URL == "" {
		return DriverMemory
	}

	scheme, _, ok := strings.Cut(d.URL, "://")
	if !ok {
		return ""
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return DriverMongo
	case "postgres", "postgresql":
		return DriverPostgres
	default:
		return ""
	}
}

// ConversationsConfig — окно истории для чата.
type ConversationsConfig struct {
	Limit int `yaml:"limit" env:"CONVERSATIONS_LIMIT" env-default:"5"`
}

// RateLimitConfig — лимит запросов генерации на пользователя. RPS=0 отключает лимит.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATELIMIT_RPS" env-default:"0"`
	Burst int     `yaml:"burst" env:"RATELIMIT_BURST" env-default:"5"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// Переменные окружения всегда накладываются поверх YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	file, explicit := resolvePath(path)
	if file == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	} else {
		if explicit {
			if _, err := os.Stat(file); err != nil {
				return nil, fmt.Errorf("config file %q stat failed: %w", file, err)
			}
		}

		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", file, err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolvePath выбирает файл конфигурации. explicit=true означает, что путь
// задан пользователем и его отсутствие — ошибка.
func resolvePath(path string) (file string, explicit bool) {
	if path != "" {
		return path, true
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return envPath, true
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return "local.yaml", false
	}

	return "", false
}

// validate — проверка значений после загрузки.
func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("env must be one of local|dev|prod, got %q", c.Env)
	}

	prod := c.Env == EnvProd

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}

	if prod {
		if len(c.Auth.JWTSecret) < minProdSecretLen {
			return fmt.Errorf("auth.jwt_secret must be at least %d bytes in prod", minProdSecretLen)
		}

		if _, bad := placeholderSecrets[strings.ToLower(c.Auth.JWTSecret)]; bad {
			return errors.New("auth.jwt_secret must not be a placeholder value")
		}
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be > 0")
	}

	if err := c.validateUsers(prod); err != nil {
		return err
	}

	if c.Generation.Timeout <= 0 {
		return errors.New("generation.timeout must be > 0")
	}

	if c.Generation.USDToINR < 0 {
		return errors.New("generation.usd_to_inr must be >= 0")
	}

	for kind := range c.Generation.Backends {
		if !models.Kind(kind).Valid() {
			return fmt.Errorf("generation.backends: unknown kind %q", kind)
		}
	}

	for _, kind := range models.Kinds() {
		switch backend := c.Generation.BackendFor(kind); backend {
		case BackendOpenAI:
			if prod && c.OpenAI.APIKey == "" {
				return fmt.Errorf("openai.api_key is required: kind %q uses openai", kind)
			}
		case BackendAnthropic:
			if prod && c.Anthropic.APIKey == "" {
				return fmt.Errorf("anthropic.api_key is required: kind %q uses anthropic", kind)
			}
		default:
			return fmt.Errorf("generation.backends[%s]: unknown backend %q", kind, backend)
		}
	}

	if c.Insights.Enabled() && prod && c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required for insights embeddings")
	}

	if c.DB.Driver() == "" {
		return errors.New("db.url: unsupported scheme (want mongodb://, mongodb+srv://, postgres:// or postgresql://)")
	}

	if c.Conversations.Limit < 1 || c.Conversations.Limit > 50 {
		return errors.New("conversations.limit must be in [1, 50]")
	}

	if c.Insights.Enabled() {
		if c.Insights.TopK <= 0 || c.Insights.FallbackTopK <= 0 {
			return errors.New("insights.top_k and insights.fallback_top_k must be > 0")
		}

		if c.Insights.MaxAge <= 0 {
			return errors.New("insights.max_age must be > 0")
		}

		if c.Insights.RedisURL != "" && c.Insights.CacheTTL <= 0 {
			return errors.New("insights.cache_ttl must be > 0 when insights.redis_url is set")
		}
	}

	if c.RateLimit.RPS < 0 {
		return errors.New("ratelimit.rps must be >= 0")
	}

	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return errors.New("ratelimit.burst must be > 0 when ratelimit.rps is set")
	}

	return nil
}

func (c *Config) validateUsers(prod bool) error {
	if len(c.Auth.Users) == 0 {
		return errors.New("auth.users: at least one user is required")
	}

	seen := make(map[string]struct{}, len(c.Auth.Users))
	for i, u := range c.Auth.Users {
		if u.Username == "" {
			return fmt.Errorf("auth.users[%d]: username is required", i)
		}

		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("auth.users[%d]: duplicate username %q", i, u.Username)
		}
		seen[u.Username] = struct{}{}

		switch {
		case u.PasswordHash != "":
			if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
				return fmt.Errorf("auth.users[%d]: password_hash is not a bcrypt hash", i)
			}
		case u.Password != "":
			if prod {
				return fmt.Errorf("auth.users[%d]: plaintext password is not allowed in prod", i)
			}
		default:
			return fmt.Errorf("auth.users[%d]: password_hash or password is required", i)
		}
	}

	return nil
}
