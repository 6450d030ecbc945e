package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.Movies(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) getMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := h.catalog.Movie(r.Context(), chi.URLParam(r, "title"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) moviesByGenre(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.ByGenre(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) moviesByDirector(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.ByDirector(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}
