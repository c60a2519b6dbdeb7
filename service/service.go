// Package service implements the read-only posts and comments HTTP services.
package service

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/n9te9/go-graphql-rest-gateway/metrics"
	"github.com/n9te9/go-graphql-rest-gateway/store"
)

// Option configures one backing service listener.
type Option struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
	// StrictFilters rejects unreadable filter tokens with 400 instead of silently
	// matching nothing. Only the comments service has filters.
	StrictFilters bool `yaml:"strict_filters"`
}

type postsHandler struct {
	repo   store.PostRepository
	logger *slog.Logger
}

// NewPostsHandler serves GET /posts from repo.
func NewPostsHandler(repo store.PostRepository, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &postsHandler{repo: repo, logger: logger}

	router := mux.NewRouter()
	router.Use(recoverer(logger), requestLogger("posts", logger, m))
	router.HandleFunc("/posts", h.list).Methods(http.MethodGet)
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	return router
}

func (h *postsHandler) list(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.ListPosts(r.Context())
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

type commentsHandler struct {
	repo   store.CommentRepository
	strict bool
	logger *slog.Logger
}

// NewCommentsHandler serves GET /comments from repo, filtered by the id or postId
// query parameters.
func NewCommentsHandler(repo store.CommentRepository, opt Option, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &commentsHandler{repo: repo, strict: opt.StrictFilters, logger: logger}

	router := mux.NewRouter()
	router.Use(recoverer(logger), requestLogger("comments", logger, m))
	router.HandleFunc("/comments", h.list).Methods(http.MethodGet)
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	return router
}

func (h *commentsHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := ParseCommentFilter(r.URL.Query())
	if !filter.Valid() {
		if h.strict {
			writeError(w, http.StatusBadRequest, "invalid "+filter.Kind.String()+" filter")
			return
		}
		h.logger.Debug("unreadable filter tokens match nothing",
			"kind", filter.Kind.String(),
			"invalid", filter.Invalid)
	}

	comments, err := h.repo.ListComments(r.Context())
	if err != nil {
		h.logger.Error("failed to list comments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	writeJSON(w, http.StatusOK, filter.Apply(comments))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
