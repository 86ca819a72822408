package handlers

import (
	"net/http"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/transport/http/middleware"
	apierrors "github.com/pribylovaa/orange-copywriter/internal/transport/http/errors"
)

// GenerateMarketing — reel/post/poll/strategy: одинаковая форма запроса.
func (h *Handlers) GenerateMarketing(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in MarketingRequest
		if err := decodeStrict(w, r, &in); err != nil {
			apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
			return
		}

		h.generate(w, r, in.toModel(kind))
	}
}

func (h *Handlers) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var in EmailRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	h.generate(w, r, in.toModel())
}

func (h *Handlers) GenerateChat(w http.ResponseWriter, r *http.Request) {
	var in ChatRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	h.generate(w, r, in.toModel())
}

func (h *Handlers) GenerateScript(w http.ResponseWriter, r *http.Request) {
	var in ScriptRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidBody)
		return
	}

	h.generate(w, r, in.toModel())
}

func (h *Handlers) generate(w http.ResponseWriter, r *http.Request, req models.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}
	req.Username = user

	res, err := h.Generator.Generate(r.Context(), req)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Result: res.Text})
}
