// Package auth реализует таблицу учётных данных и выпуск/проверку bearer-токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
	"github.com/pribylovaa/orange-copywriter/internal/pkg/redact"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken — токен некорректен по формату, подписи, алгоритму или издателю.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrUnknownSubject — владелец токена отсутствует в таблице учётных данных.
	ErrUnknownSubject = errors.New("unknown token subject")
)

// Service объединяет проверку пароля и выпуск токена (POST /token)
// и проверку токена (мидлвара аутентификации).
type Service struct {
	creds  *Credentials
	tokens *Tokens
}

// New создаёт Service.
func New(creds *Credentials, tokens *Tokens) *Service {
	return &Service{creds: creds, tokens: tokens}
}

// Login проверяет учётные данные и выпускает токен.
func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	const op = "auth.Login"

	lg := log.From(ctx)

	if !s.creds.Verify(username, password) {
		lg.Warn("login_failed",
			slog.String("op", op),
			slog.String("username", redact.Username(username)),
		)
		return Token{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	tok, err := s.tokens.Issue(username)
	if err != nil {
		lg.Error("token_issue_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_ok",
		slog.String("op", op),
		slog.String("username", redact.Username(username)),
	)

	return tok, nil
}

// Authenticate проверяет токен и возвращает имя пользователя.
func (s *Service) Authenticate(_ context.Context, token string) (string, error) {
	const op = "auth.Authenticate"

	username, err := s.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return username, nil
}
