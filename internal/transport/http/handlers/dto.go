package handlers

import (
	"errors"
	"time"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

var errTrailingData = errors.New("trailing data after JSON object")

// TokenRequest — JSON-вариант POST /token (форма принимается тоже).
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse — ответ POST /token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MarketingRequest — reel, post, poll, strategy.
type MarketingRequest struct {
	Agenda          string `json:"agenda"`
	Mood            string `json:"mood"`
	Client          string `json:"client"`
	AdditionalInput string `json:"additional_input"`
}

// EmailRequest — письмо потенциальному клиенту.
type EmailRequest struct {
	Receiver        string `json:"receiver"`
	ClientCompany   string `json:"client_company"`
	Client          string `json:"client"`
	TargetIndustry  string `json:"target_industry"`
	AdditionalInput string `json:"additional_input"`
}

// ChatRequest — ход стратегического чата.
type ChatRequest struct {
	Industry  string `json:"industry"`
	Purpose   string `json:"purpose"`
	Client    string `json:"client"`
	UserInput string `json:"user_input"`
}

// ScriptRequest — сценарий видео.
type ScriptRequest struct {
	Industry string `json:"industry"`
	Purpose  string `json:"purpose"`
	Client   string `json:"client"`
}

// GenerateResponse — успешный результат генерации.
type GenerateResponse struct {
	Result string `json:"result"`
}

// MessageDTO — реплика в истории.
type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationDTO — одна запись истории.
type ConversationDTO struct {
	ID        string       `json:"id,omitempty"`
	Industry  string       `json:"industry"`
	Client    string       `json:"client"`
	Purpose   string       `json:"purpose"`
	Messages  []MessageDTO `json:"messages"`
	Timestamp time.Time    `json:"timestamp"`
}

// ConversationsResponse — ответ GET /api/conversations.
type ConversationsResponse struct {
	Conversations []ConversationDTO `json:"conversations"`
}

func (in MarketingRequest) toModel(kind models.Kind) models.Request {
	return models.Request{
		Kind:            kind,
		Client:          in.Client,
		Agenda:          in.Agenda,
		Mood:            in.Mood,
		AdditionalInput: in.AdditionalInput,
	}
}

func (in EmailRequest) toModel() models.Request {
	return models.Request{
		Kind:            models.KindEmail,
		Client:          in.Client,
		Receiver:        in.Receiver,
		ClientCompany:   in.ClientCompany,
		TargetIndustry:  in.TargetIndustry,
		AdditionalInput: in.AdditionalInput,
	}
}

func (in ChatRequest) toModel() models.Request {
	return models.Request{
		Kind:      models.KindChat,
		Client:    in.Client,
		Industry:  in.Industry,
		Purpose:   in.Purpose,
		UserInput: in.UserInput,
	}
}

func (in ScriptRequest) toModel() models.Request {
	return models.Request{
		Kind:     models.KindScript,
		Client:   in.Client,
		Industry: in.Industry,
		Purpose:  in.Purpose,
	}
}

func conversationsFromModel(convs []models.Conversation) ConversationsResponse {
	out := ConversationsResponse{Conversations: make([]ConversationDTO, 0, len(convs))}

	for _, c := range convs {
		msgs := make([]MessageDTO, 0, len(c.Messages))
		for _, m := range c.Messages {
			msgs = append(msgs, MessageDTO{Role: m.Role, Content: m.Content})
		}

		out.Conversations = append(out.Conversations, ConversationDTO{
			ID:        c.ID,
			Industry:  c.Key.Industry,
			Client:    c.Key.Client,
			Purpose:   c.Key.Purpose,
			Messages:  msgs,
			Timestamp: c.Timestamp.UTC(),
		})
	}

	return out
}
