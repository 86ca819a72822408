package handlers

import (
	"net/http"
	"strconv"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/service"
	apierrors "github.com/pribylovaa/orange-copywriter/internal/transport/http/errors"
)

// ListConversations — GET /api/conversations?industry=&client=&purpose=&limit=.
// Записи от новых к старым; limit пустой или 0 — значение по умолчанию.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.WriteError(w, r, &service.FieldError{Field: "limit", Reason: "must be an integer"})
			return
		}
		limit = v
	}

	key := models.ConversationKey{
		Industry: q.Get("industry"),
		Client:   q.Get("client"),
		Purpose:  q.Get("purpose"),
	}

	convs, err := h.Generator.RecentConversations(r.Context(), key, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conversationsFromModel(convs))
}
