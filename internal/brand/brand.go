// Package brand хранит статичные контексты брендов, которые подставляются в промпты.
package brand

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed contexts/*.txt
var builtin embed.FS

// ErrUnknownClient — идентификатор клиента не найден в реестре.
var ErrUnknownClient = errors.New("unknown client")

// Registry — неизменяемый реестр client -> текст контекста.
type Registry struct {
	contexts map[string]string
}

// New загружает встроенные контексты и накладывает overrides из конфигурации
// (новые клиенты добавляются, существующие переопределяются).
func New(overrides map[string]string) (*Registry, error) {
	const op = "brand.New"

	entries, err := builtin.ReadDir("contexts")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := &Registry{contexts: make(map[string]string, len(entries)+len(overrides))}

	for _, e := range entries {
		b, err := builtin.ReadFile(path.Join("contexts", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		client := strings.TrimSuffix(e.Name(), ".txt")
		r.contexts[client] = strings.TrimSpace(string(b))
	}

	for client, text := range overrides {
		client = strings.TrimSpace(client)
		text = strings.TrimSpace(text)

		if client == "" || text == "" {
			return nil, fmt.Errorf("%s: brands: empty client or context for %q", op, client)
		}

		r.contexts[client] = text
	}

	return r, nil
}

// Resolve возвращает контекст бренда. Сравнение точное (с учётом регистра).
func (r *Registry) Resolve(client string) (string, error) {
	const op = "brand.Resolve"

	text, ok := r.contexts[client]
	if !ok {
		return "", fmt.Errorf("%s: %q: %w", op, client, ErrUnknownClient)
	}

	return text, nil
}

// Clients возвращает отсортированный список известных клиентов.
func (r *Registry) Clients() []string {
	out := make([]string, 0, len(r.contexts))
	for c := range r.contexts {
		out = append(out, c)
	}

	sort.Strings(out)

	return out
}
