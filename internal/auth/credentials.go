package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/orange-copywriter/internal/config"
	"github.com/pribylovaa/orange-copywriter/internal/models"
)

type credential struct {
	hash []byte
	user models.User
}

// Credentials — неизменяемая таблица username -> {bcrypt-хеш, отображаемое имя}.
// Заполняется один раз при старте.
type Credentials struct {
	users map[string]credential
	// dummy сравнивается для неизвестных имён, чтобы время ответа
	// не выдавало существование пользователя.
	dummy []byte
}

// NewCredentials строит таблицу из конфигурации. Открытые пароли
// хешируются с указанной стоимостью; готовые хеши используются как есть.
func NewCredentials(users []config.UserConfig, cost int) (*Credentials, error) {
	const op = "auth.NewCredentials"

	dummy, err := bcrypt.GenerateFromPassword([]byte("orange-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := &Credentials{
		users: make(map[string]credential, len(users)),
		dummy: dummy,
	}

	for _, u := range users {
		hash := []byte(u.PasswordHash)
		if len(hash) == 0 {
			hash, err = bcrypt.GenerateFromPassword([]byte(u.Password), cost)
			if err != nil {
				return nil, fmt.Errorf("%s: hash password for %q: %w", op, u.Username, err)
			}
		}

		name := u.DisplayName
		if name == "" {
			name = u.Username
		}

		c.users[u.Username] = credential{
			hash: hash,
			user: models.User{Username: u.Username, DisplayName: name},
		}
	}

	return c, nil
}

// Verify сравнивает пароль с хешем пользователя. Неизвестное имя -> false.
func (c *Credentials) Verify(username, password string) bool {
	cred, ok := c.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(c.dummy, []byte(password))
		return false
	}

	return bcrypt.CompareHashAndPassword(cred.hash, []byte(password)) == nil
}

// Lookup возвращает пользователя по имени.
func (c *Credentials) Lookup(username string) (models.User, bool) {
	cred, ok := c.users[username]
	return cred.user, ok
}

// HashPassword возвращает bcrypt-хеш для записи в auth.users[].password_hash.
func HashPassword(password string) (string, error) {
	const op = "auth.HashPassword"

	if password == "" {
		return "", fmt.Errorf("%s: empty password", op)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}
