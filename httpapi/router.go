// Package httpapi serves the shelf over HTTP for local tools and exposes
// Prometheus metrics. It is only started when an address is configured.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lexandro/docshelf-mcp/catalog"
	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handler struct {
	library *library.Library
	logger  *slog.Logger
}

type documentsResponse struct {
	Documents  []discovery.Document `json:"documents"`
	Total      int                  `json:"total"`
	Generation uint64               `json:"generation"`
}

type favoriteResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the HTTP routes. gatherer backs /metrics.
func NewRouter(lib *library.Library, metrics *Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	h := &handler{library: lib, logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	if metrics != nil {
		router.Use(metrics.Middleware)
	}

	router.Get("/healthz", h.health)
	router.Get("/documents", h.listDocuments)
	router.Get("/documents/{id}", h.getDocument)
	router.Post("/documents/{id}/favorite", h.toggleFavorite)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return router
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	snap := h.library.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": snap.Generation,
		"documents":  len(snap.Documents),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// listDocuments supports category, name, favorites, recent and limit query
// parameters, applied in that order.
func (h *handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	snap := h.library.Snapshot()
	docs := snap.Documents

	if category := query.Get("category"); category != "" {
		if _, ok := catalog.ParseCategory(category); !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown category: " + category})
			return
		}
		docs = discovery.FilterByCategory(docs, category)
	}
	if name := query.Get("name"); name != "" {
		docs = discovery.FilterByName(docs, name)
	}
	if favorites, _ := strconv.ParseBool(query.Get("favorites")); favorites {
		docs = discovery.Favorites(docs)
	}
	if raw := query.Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "recent must be an integer"})
			return
		}
		docs = discovery.Recent(docs, n)
	}

	total := len(docs)
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		if n < len(docs) {
			docs = docs[:n]
		}
	}
	if docs == nil {
		docs = []discovery.Document{}
	}

	writeJSON(w, http.StatusOK, documentsResponse{Documents: docs, Total: total, Generation: snap.Generation})
}

func (h *handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.library.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	favorite, err := h.library.ToggleFavorite(id)
	if errors.Is(err, library.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}
	if err != nil {
		h.logger.Error("toggling favorite failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not update favorites"})
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, Favorite: favorite})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
