package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/pribylovaa/orange-copywriter/internal/service"
	apierrors "github.com/pribylovaa/orange-copywriter/internal/transport/http/errors"
)

// Token — POST /token: обмен логина/пароля на bearer-токен.
// Принимает application/x-www-form-urlencoded (как OAuth2 password flow) или JSON.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(w, r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	tok, err := h.Auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: tok.Value,
		TokenType:   "bearer",
		ExpiresAt:   tok.ExpiresAt.UTC(),
	})
}

func readCredentials(w http.ResponseWriter, r *http.Request) (TokenRequest, error) {
	var in TokenRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		if err := decodeStrict(w, r, &in); err != nil {
			return in, apierrors.ErrInvalidBody
		}

	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return in, apierrors.ErrInvalidBody
		}
		in.Username = r.PostForm.Get("username")
		in.Password = r.PostForm.Get("password")
	}

	in.Username = strings.TrimSpace(in.Username)

	switch {
	case in.Username == "":
		return in, &service.FieldError{Field: "username", Reason: "is required"}
	case in.Password == "":
		return in, &service.FieldError{Field: "password", Reason: "is required"}
	}

	return in, nil
}
