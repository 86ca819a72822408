package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/orange-copywriter/internal/auth"
	"github.com/pribylovaa/orange-copywriter/internal/brand"
	"github.com/pribylovaa/orange-copywriter/internal/config"
	"github.com/pribylovaa/orange-copywriter/internal/insights"
	"github.com/pribylovaa/orange-copywriter/internal/llm"
	"github.com/pribylovaa/orange-copywriter/internal/metrics"
	"github.com/pribylovaa/orange-copywriter/internal/prompt"
	"github.com/pribylovaa/orange-copywriter/internal/service"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
	"github.com/pribylovaa/orange-copywriter/internal/storage/memory"
	"github.com/pribylovaa/orange-copywriter/internal/storage/mongo"
	"github.com/pribylovaa/orange-copywriter/internal/storage/postgres"
)

const dbConnectTimeout = 10 * time.Second

// app — собранные зависимости процесса.
type app struct {
	auth     *auth.Service
	service  *service.Service
	storage  storage.ConversationStorage
	mongo    *mongo.Mongo
	postgres *postgres.Storage
	cache    *insights.Cache
}

// newApp собирает граф зависимостей по конфигурации.
func newApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*app, error) {
	const op = "main.newApp"

	log := slog.Default()

	creds, err := auth.NewCredentials(cfg.Auth.Users, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	authSvc := auth.New(creds, auth.NewTokens(cfg.Auth, creds))

	brands, err := brand.New(cfg.Brands)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prompts, err := prompt.New()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m, err := metrics.NewGeneration(reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &app{auth: authSvc}

	switch cfg.DB.Driver() {
	case config.DriverMongo:
		dbCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
		defer cancel()

		mg, err := mongo.New(dbCtx, cfg.DB.URL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.mongo = mg
		a.storage = mg
		log.Info("storage_mongo_connected")
	case config.DriverPostgres:
		dbCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
		defer cancel()

		pg, err := postgres.New(dbCtx, cfg.DB.URL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.postgres = pg
		a.storage = pg
		log.Info("storage_postgres_connected")
	default:
		a.storage = memory.New()
		log.Warn("storage_memory", slog.String("reason", "db.url is empty; history is lost on restart"))
	}

	// Дедлайны задаются контекстом запроса; клиент без собственного таймаута.
	hc := &http.Client{}

	openai := llm.NewOpenAI(cfg.OpenAI, hc)

	d := service.Deps{
		Brands:  brands,
		Prompts: prompts,
		Backends: map[string]llm.Backend{
			config.BackendOpenAI:    openai,
			config.BackendAnthropic: llm.NewAnthropic(cfg.Anthropic, hc),
		},
		Storage: a.storage,
		Metrics: m,
	}

	if cfg.Insights.Enabled() {
		var r insights.Retriever = insights.NewPinecone(cfg.Insights, openai, hc)

		if cfg.Insights.RedisURL != "" {
			cacheCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
			defer cancel()

			c, err := insights.NewRedisCache(cacheCtx, cfg.Insights.RedisURL, cfg.Insights.CacheTTL, r)
			if err != nil {
				_ = a.close(ctx)
				return nil, fmt.Errorf("%s: %w", op, err)
			}

			a.cache = c
			r = c
		}

		d.Insights = r
		log.Info("insights_enabled",
			slog.String("host", cfg.Insights.PineconeHost),
			slog.Bool("cache", a.cache != nil),
		)
	}

	svc, err := service.New(cfg, d)
	if err != nil {
		_ = a.close(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.service = svc

	return a, nil
}

// ping — готовность хранилища (для памяти всегда готово).
func (a *app) ping(ctx context.Context) error {
	switch {
	case a.mongo != nil:
		return a.mongo.Ping(ctx)
	case a.postgres != nil:
		return a.postgres.Ping(ctx)
	default:
		return nil
	}
}

func (a *app) close(ctx context.Context) error {
	var errs []error

	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}

	if a.mongo != nil {
		errs = append(errs, a.mongo.Close(ctx))
	}

	if a.postgres != nil {
		a.postgres.Close()
	}

	return errors.Join(errs...)
}
