package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/orange-copywriter/internal/brand"
	"github.com/pribylovaa/orange-copywriter/internal/metrics"
	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
	"github.com/pribylovaa/orange-copywriter/internal/pkg/redact"
	"github.com/pribylovaa/orange-copywriter/internal/prompt"
)

// Generate — сквозной сценарий генерации одного текста.
//
// Порядок: валидация полей -> контекст бренда -> параллельно (chat/script/email: новости;
// chat: история) под timeouts.service, с мягким отказом -> промпт -> один вызов бэкенда с таймаутом
// -> оценка стоимости (лог + метрики) -> (chat: запись хода, мягкий отказ).
//
// Ошибки: FieldError (ErrInvalidArgument), UnknownClientError (ErrUnknownClient),
// ErrUpstreamFailure, ErrUpstreamTimeout, ErrInternal. Неизвестный клиент
// отклоняется до любых внешних вызовов.
func (s *Service) Generate(ctx context.Context, req models.Request) (*models.Result, error) {
	const op = "service/generate/Generate"

	req = normalize(req)

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("kind", string(req.Kind)),
		slog.String("client", req.Client),
		slog.String("user", redact.Username(req.Username)),
	)

	if err := validate(req); err != nil {
		lg.Warn("invalid_request", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	brandText, err := s.brands.Resolve(req.Client)
	if err != nil {
		if errors.Is(err, brand.ErrUnknownClient) {
			lg.Warn("unknown_client", slog.Any("known", s.brands.Clients()))
			return nil, fmt.Errorf("%s: %w", op, &UnknownClientError{Client: req.Client})
		}

		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	fields := prompt.Fields{
		Client:          req.Client,
		Brand:           brandText,
		Agenda:          req.Agenda,
		Mood:            req.Mood,
		AdditionalInput: req.AdditionalInput,
		Receiver:        req.Receiver,
		ClientCompany:   req.ClientCompany,
		TargetIndustry:  req.TargetIndustry,
		Industry:        req.Industry,
		Purpose:         req.Purpose,
		UserInput:       req.UserInput,
	}

	key := models.ConversationKey{Industry: req.Industry, Client: req.Client, Purpose: req.Purpose}
	fields.Insights, fields.History = s.softContext(ctx, req, key)

	p, err := s.prompts.Build(req.Kind, fields)
	if err != nil {
		lg.Error("prompt_build_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	backend := s.backends[req.Kind]
	text, err := s.complete(ctx, req.Kind, backend.Name(), func(ctx context.Context) (string, error) {
		return backend.Complete(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cost := s.estimateCost(backend.Name(), p.InputChars(), utf8.RuneCountInString(text))
	s.metrics.ObserveCost(string(req.Kind), backend.Name(), cost.InputChars, cost.OutputChars, cost.USD)

	id := uuid.New()

	lg.Info("generation_cost",
		slog.String("generation_id", id.String()),
		slog.String("backend", backend.Name()),
		slog.Int("input_chars", cost.InputChars),
		slog.Int("output_chars", cost.OutputChars),
		slog.Float64("usd", cost.USD),
		slog.Float64("inr", cost.INR),
	)

	if req.Kind == models.KindChat {
		s.appendTurn(ctx, key, req.UserInput, text)
	}

	return &models.Result{
		ID:      id,
		Kind:    req.Kind,
		Backend: backend.Name(),
		Text:    text,
		Cost:    cost,
	}, nil
}

// complete выполняет один вызов бэкенда под собственным дедлайном поверх ctx:
// отмена запроса клиентом прерывает и внешний вызов. Повторов нет.
// Отмена клиентом возвращается как context.Canceled, без ErrUpstreamFailure.
func (s *Service) complete(ctx context.Context, kind models.Kind, backend string, call func(context.Context) (string, error)) (string, error) {
	lg := log.From(ctx)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	text, err := call(callCtx)
	dur := s.now().Sub(start)

	switch {
	case err == nil:
		s.metrics.ObserveCall(string(kind), backend, metrics.OutcomeOK, dur)
		lg.Info("generation_done",
			slog.String("kind", string(kind)),
			slog.String("backend", backend),
			slog.Duration("dur", dur),
		)
		return text, nil

	case errors.Is(ctx.Err(), context.Canceled):
		s.metrics.ObserveCall(string(kind), backend, metrics.OutcomeCanceled, dur)
		lg.Warn("generation_canceled",
			slog.String("kind", string(kind)),
			slog.String("backend", backend),
			slog.Duration("dur", dur),
		)
		return "", ctx.Err()

	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.ObserveCall(string(kind), backend, metrics.OutcomeTimeout, dur)
		lg.Error("generation_timeout",
			slog.String("kind", string(kind)),
			slog.String("backend", backend),
			slog.Duration("dur", dur),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)

	default:
		s.metrics.ObserveCall(string(kind), backend, metrics.OutcomeUpstream, dur)
		lg.Error("generation_failed",
			slog.String("kind", string(kind)),
			slog.String("backend", backend),
			slog.Duration("dur", dur),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}
}

// softContext параллельно собирает новости и историю чата, каждую под softTimeout.
// Зависший индекс или хранилище не съедают дедлайн вызова бэкенда.
func (s *Service) softContext(ctx context.Context, req models.Request, key models.ConversationKey) ([]string, []models.Message) {
	var (
		g     errgroup.Group
		news  []string
		turns []models.Message
	)

	if q := insightsQuery(req); q != "" {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, s.softTimeout)
			defer cancel()

			news = s.lookupInsights(sctx, q)
			return nil
		})
	}

	if req.Kind == models.KindChat {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, s.softTimeout)
			defer cancel()

			turns = s.history(sctx, key)
			return nil
		})
	}

	_ = g.Wait()

	return news, turns
}

// lookupInsights — мягкая зависимость: любая ошибка даёт пустой список.
func (s *Service) lookupInsights(ctx context.Context, query string) []string {
	if s.insights == nil {
		return nil
	}

	out, err := s.insights.Insights(ctx, query)
	if err != nil {
		s.metrics.SoftFailure("insights", "lookup")
		log.From(ctx).Warn("insights_lookup_failed",
			slog.String("op", "service/generate/lookupInsights"),
			slog.String("err", err.Error()),
		)
		return nil
	}

	return out
}

// insightsQuery — по какой отрасли искать новости для вида контента.
func insightsQuery(req models.Request) string {
	switch req.Kind {
	case models.KindChat, models.KindScript:
		return req.Industry
	case models.KindEmail:
		return req.TargetIndustry
	default:
		return ""
	}
}

func normalize(r models.Request) models.Request {
	r.Client = strings.TrimSpace(r.Client)
	r.Agenda = strings.TrimSpace(r.Agenda)
	r.Mood = strings.TrimSpace(r.Mood)
	r.AdditionalInput = strings.TrimSpace(r.AdditionalInput)
	r.Receiver = strings.TrimSpace(r.Receiver)
	r.ClientCompany = strings.TrimSpace(r.ClientCompany)
	r.TargetIndustry = strings.TrimSpace(r.TargetIndustry)
	r.Industry = strings.TrimSpace(r.Industry)
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.UserInput = strings.TrimSpace(r.UserInput)

	return r
}

type field struct {
	name  string
	value string
}

// validate проверяет обязательные поля вида контента (в порядке их объявления).
func validate(r models.Request) error {
	var required []field

	switch r.Kind {
	case models.KindReel, models.KindPost, models.KindPoll, models.KindStrategy:
		required = []field{{"agenda", r.Agenda}, {"mood", r.Mood}, {"client", r.Client}}
	case models.KindEmail:
		required = []field{{"receiver", r.Receiver}, {"client_company", r.ClientCompany}, {"client", r.Client}, {"target_industry", r.TargetIndustry}}
	case models.KindChat:
		required = []field{{"industry", r.Industry}, {"purpose", r.Purpose}, {"client", r.Client}, {"user_input", r.UserInput}}
	case models.KindScript:
		required = []field{{"industry", r.Industry}, {"purpose", r.Purpose}, {"client", r.Client}}
	default:
		return &FieldError{Field: "kind", Reason: fmt.Sprintf("unsupported content kind %q", r.Kind)}
	}

	for _, f := range required {
		if f.value == "" {
			return &FieldError{Field: f.name, Reason: "is required"}
		}
	}

	return nil
}
