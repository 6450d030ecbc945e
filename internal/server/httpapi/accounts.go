package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/services"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type loginResponse struct {
	User  models.AccountView `json:"user"`
	Token string             `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, account.View())
}

// login accepts credentials as a JSON body or, for older clients, as
// identifier/secret (or Username/Password) query parameters.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if r.ContentLength != 0 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(w, r, &in); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if in.Identifier == "" && in.Secret == "" {
		q := r.URL.Query()
		in.Identifier = firstNonEmpty(q.Get("identifier"), q.Get("Username"))
		in.Secret = firstNonEmpty(q.Get("secret"), q.Get("Password"))
	}

	account, token, err := h.accounts.Login(r.Context(), in.Identifier, in.Secret)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			h.metrics.AuthFailure("credentials")
			h.logger.Warn(r.Context(), "login rejected", "identifier", in.Identifier)
		}
		h.writeError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "login", "identifier", account.Identifier)
	writeJSON(w, http.StatusOK, loginResponse{User: account.View(), Token: token})
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account.View())
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accounts.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account.View())
}

// deleteAccount answers a missing account with 400 and a plain text body.
func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.accounts.Delete(r.Context(), callerID(r), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeText(w, http.StatusBadRequest, id+" was not found")
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, id+" was deleted.")
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	account, err := h.favorites.Add(r.Context(), callerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "movieID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account.View())
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	account, err := h.favorites.Remove(r.Context(), callerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "movieID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account.View())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
