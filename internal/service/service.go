// service содержит бизнес-логику генерации: бренд -> промпт -> бэкенд -> стоимость -> история.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/orange-copywriter/internal/brand"
	"github.com/pribylovaa/orange-copywriter/internal/config"
	"github.com/pribylovaa/orange-copywriter/internal/insights"
	"github.com/pribylovaa/orange-copywriter/internal/llm"
	"github.com/pribylovaa/orange-copywriter/internal/metrics"
	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/prompt"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
)

var (
	// ErrInvalidArgument — отсутствует обязательное поле или неверное значение.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownClient — клиент не найден в реестре брендов.
	ErrUnknownClient = errors.New("unknown client")
	// ErrUpstreamFailure — внешний API генерации не вернул пригодный текст.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrUpstreamTimeout — вызов внешнего API не уложился в дедлайн.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrInternal — прочие ошибки (шаблоны, хранилище на чтении и т.д.).
	ErrInternal = errors.New("internal")
)

// FieldError — ошибка валидации конкретного поля запроса.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

// Unwrap позволяет проверять errors.Is(err, ErrInvalidArgument).
func (e *FieldError) Unwrap() error { return ErrInvalidArgument }

// UnknownClientError несёт идентификатор неизвестного клиента.
type UnknownClientError struct {
	Client string
}

func (e *UnknownClientError) Error() string { return fmt.Sprintf("unknown client %q", e.Client) }

// Unwrap позволяет проверять errors.Is(err, ErrUnknownClient).
func (e *UnknownClientError) Unwrap() error { return ErrUnknownClient }

// Pricing — цена за 1000 символов в USD.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Deps — внешние зависимости сервиса.
type Deps struct {
	Brands  *brand.Registry
	Prompts *prompt.Library
	// Backends — по имени (openai, anthropic). Используются только упомянутые в конфигурации.
	Backends map[string]llm.Backend
	Storage  storage.ConversationStorage
	// Insights == nil отключает поиск рыночных новостей.
	Insights insights.Retriever
	Metrics  *metrics.Generation
}

// Service — сценарии генерации контента.
type Service struct {
	brands       *brand.Registry
	prompts      *prompt.Library
	backends     map[models.Kind]llm.Backend
	pricing      map[string]Pricing
	storage      storage.ConversationStorage
	insights     insights.Retriever
	metrics      *metrics.Generation
	timeout      time.Duration
	softTimeout  time.Duration
	historyLimit int
	usdToINR     float64
	now          func() time.Time
}

// New собирает сервис и проверяет, что у каждого вида контента есть бэкенд.
func New(cfg *config.Config, d Deps) (*Service, error) {
	const op = "service.New"

	if d.Brands == nil || d.Prompts == nil || d.Storage == nil {
		return nil, fmt.Errorf("%s: brands, prompts and storage are required", op)
	}

	backends := make(map[models.Kind]llm.Backend, len(models.Kinds()))
	for _, k := range models.Kinds() {
		name := cfg.Generation.BackendFor(k)

		b, ok := d.Backends[name]
		if !ok || b == nil {
			return nil, fmt.Errorf("%s: no backend %q for kind %q", op, name, k)
		}

		backends[k] = b
	}

	return &Service{
		brands:   d.Brands,
		prompts:  d.Prompts,
		backends: backends,
		pricing: map[string]Pricing{
			config.BackendOpenAI:    {InputPer1K: cfg.OpenAI.InputPer1K, OutputPer1K: cfg.OpenAI.OutputPer1K},
			config.BackendAnthropic: {InputPer1K: cfg.Anthropic.InputPer1K, OutputPer1K: cfg.Anthropic.OutputPer1K},
		},
		storage:      d.Storage,
		insights:     d.Insights,
		metrics:      d.Metrics,
		timeout:      cfg.Generation.Timeout,
		softTimeout:  softTimeout(cfg.Timeouts.Service),
		historyLimit: storage.ClampLimit(cfg.Conversations.Limit),
		usdToINR:     cfg.Generation.USDToINR,
		now:          time.Now,
	}, nil
}

// defaultSoftTimeout — дедлайн необязательных зависимостей, если timeouts.service не задан.
const defaultSoftTimeout = 5 * time.Second

func softTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultSoftTimeout
	}

	return d
}

// Clients возвращает известных клиентов (для сообщений об ошибке и CLI).
func (s *Service) Clients() []string {
	return s.brands.Clients()
}
