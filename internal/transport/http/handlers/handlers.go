package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/orange-copywriter/internal/auth"
	"github.com/pribylovaa/orange-copywriter/internal/models"
)

// maxBodyBytes ограничивает размер JSON/формы во входящих запросах.
const maxBodyBytes = 1 << 20

// Authenticator — выдача токенов по логину/паролю.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
}

// Generator — сценарии генерации и чтения истории.
type Generator interface {
	Generate(ctx context.Context, req models.Request) (*models.Result, error)
	RecentConversations(ctx context.Context, key models.ConversationKey, limit int) ([]models.Conversation, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Auth      Authenticator
	Generator Generator
}

func New(a Authenticator, g Generator) *Handlers {
	return &Handlers{Auth: a, Generator: g}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — JSON-декодер с лимитом тела: один объект без хвоста.
// Неизвестные ключи игнорируются, фронтенд может слать лишние поля.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(value); err != nil {
		return err
	}

	if dec.More() {
		return errTrailingData
	}

	return nil
}
