package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/orange-copywriter/internal/config"
	"github.com/pribylovaa/orange-copywriter/internal/models"
)

// UserLookup подтверждает, что владелец токена всё ещё существует.
type UserLookup interface {
	Lookup(username string) (models.User, bool)
}

// Token — выпущенный bearer-токен.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Tokens выпускает и проверяет HS256-токены с sub=username.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	users  UserLookup
	now    func() time.Time
}

// Option настраивает Tokens.
type Option func(*Tokens)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(t *Tokens) { t.now = now }
}

// NewTokens создаёт сервис токенов.
func NewTokens(cfg config.AuthConfig, users UserLookup, opts ...Option) *Tokens {
	t := &Tokens{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
		users:  users,
		now:    time.Now,
	}

	for _, o := range opts {
		o(t)
	}

	return t
}

// TTL — время жизни выпускаемых токенов.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue выпускает токен для уже проверенного пользователя.
func (t *Tokens) Issue(username string) (Token, error) {
	const op = "auth.tokens.Issue"

	// JWT хранит время с точностью до секунды.
	now := t.now().UTC().Truncate(time.Second)
	exp := now.Add(t.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Validate проверяет подпись, алгоритм, издателя и срок, затем наличие пользователя.
func (t *Tokens) Validate(tokenStr string) (string, error) {
	const op = "auth.tokens.Validate"

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, ok := t.users.Lookup(claims.Subject); !ok {
		return "", fmt.Errorf("%s: %w", op, ErrUnknownSubject)
	}

	return claims.Subject, nil
}
