package models

import "time"

// Роли сообщений в записи диалога.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationKey — ключ истории чата.
type ConversationKey struct {
	Industry string
	Client   string
	Purpose  string
}

// Message — одна реплика.
type Message struct {
	Role    string
	Content string
}

// Conversation — запись одного хода чата (вопрос пользователя + ответ).
// Записи только добавляются; сервис их не изменяет и не удаляет.
type Conversation struct {
	ID        string
	Key       ConversationKey
	Messages  []Message
	Timestamp time.Time
}

// User — пользователь из таблицы учётных данных.
type User struct {
	Username    string
	DisplayName string
}
