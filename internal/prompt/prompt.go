// Package prompt собирает промпты (системные инструкции + сообщение пользователя)
// для каждого вида контента из встроенных text/template шаблонов.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// ErrUnknownKind — для вида контента нет шаблона.
var ErrUnknownKind = errors.New("unknown content kind")

const defaultMaxTokens = 1024

// Fields — значения для подстановки в шаблон.
type Fields struct {
	Client          string
	Brand           string
	Agenda          string
	Mood            string
	AdditionalInput string
	Receiver        string
	ClientCompany   string
	TargetIndustry  string
	Industry        string
	Purpose         string
	UserInput       string
	// Insights — свежие рыночные новости (chat, script, опционально email).
	Insights []string
	// History — предыдущие реплики чата, от старых к новым.
	History []models.Message
}

// Prompt — готовый запрос к модели.
type Prompt struct {
	Kind      models.Kind
	System    string
	User      string
	MaxTokens int64
	// Temperature == nil означает значение бэкенда по умолчанию.
	Temperature *float64
}

// InputChars — размер промпта в символах (для оценки стоимости).
func (p Prompt) InputChars() int {
	return utf8.RuneCountInString(p.System) + utf8.RuneCountInString(p.User)
}

type params struct {
	maxTokens   int64
	temperature *float64
}

func temperature(v float64) *float64 { return &v }

// Параметры генерации, отличные от значений по умолчанию.
var kindParams = map[models.Kind]params{
	models.KindScript: {maxTokens: 1000, temperature: temperature(0.5)},
}

// Library — набор разобранных шаблонов. Безопасна для конкурентного использования.
type Library struct {
	tmpl *template.Template
}

// New разбирает встроенные шаблоны и проверяет, что у каждого вида есть пара system/user.
func New() (*Library, error) {
	const op = "prompt.New"

	t, err := template.New("prompts").Option("missingkey=error").ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, k := range models.Kinds() {
		for _, part := range []string{"system", "user"} {
			if t.Lookup(name(k, part)) == nil {
				return nil, fmt.Errorf("%s: template %q is missing", op, name(k, part))
			}
		}
	}

	return &Library{tmpl: t}, nil
}

// MustNew — New с panic при ошибке (шаблоны встроены в бинарник).
func MustNew() *Library {
	l, err := New()
	if err != nil {
		panic(err)
	}

	return l
}

// Build рендерит промпт для вида контента.
func (l *Library) Build(kind models.Kind, f Fields) (Prompt, error) {
	const op = "prompt.Build"

	if !kind.Valid() {
		return Prompt{}, fmt.Errorf("%s: %q: %w", op, kind, ErrUnknownKind)
	}

	system, err := l.render(name(kind, "system"), f)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := l.render(name(kind, "user"), f)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s: %w", op, err)
	}

	p := Prompt{
		Kind:      kind,
		System:    system,
		User:      user,
		MaxTokens: defaultMaxTokens,
	}

	if kp, ok := kindParams[kind]; ok {
		p.MaxTokens = kp.maxTokens
		p.Temperature = kp.temperature
	}

	return p, nil
}

func (l *Library) render(tmpl string, f Fields) (string, error) {
	var buf bytes.Buffer
	if err := l.tmpl.ExecuteTemplate(&buf, tmpl, f); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

func name(kind models.Kind, part string) string {
	return string(kind) + "." + part
}
