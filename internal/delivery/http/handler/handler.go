package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/delivery/http/request"
	"github.com/user/article-mirror/internal/delivery/http/response"
	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
	"github.com/user/article-mirror/internal/usecase"
)

const (
	defaultPageCount = 10
	maxPageCount     = 20
	defaultListLimit = 50
)

var errPlatformDisabled = errors.New("platform credentials are not configured")

// Pinger is a dependency the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	converter usecase.Converter
	articles  usecase.ArticleService
	checks    map[string]Pinger
	logger    *zap.Logger
}

// NewHandler creates the HTTP handler. articles may be nil when no platform credentials
// are configured; checks name the optional dependencies reported by the health check.
func NewHandler(converter usecase.Converter, articles usecase.ArticleService, checks map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		converter: converter,
		articles:  articles,
		checks:    checks,
		logger:    logger.With(zap.String("component", "http_handler")),
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok"}
	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.checks))
	}
	for name, dep := range h.checks {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Dependencies[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "healthy"
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListArticles(w http.ResponseWriter, r *http.Request) {
	if h.articles == nil {
		h.writeError(w, r, errPlatformDisabled)
		return
	}
	offset, count, ok := h.page(w, r)
	if !ok {
		return
	}
	resp, err := h.articles.ListPublished(r.Context(), offset, count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, resp)
}

func (h *Handler) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	if h.articles == nil {
		h.writeError(w, r, errPlatformDisabled)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeJSONError(w, "Article id is required", http.StatusBadRequest)
		return
	}
	resp, err := h.articles.GetPublished(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, resp)
}

func (h *Handler) HandleListDrafts(w http.ResponseWriter, r *http.Request) {
	if h.articles == nil {
		h.writeError(w, r, errPlatformDisabled)
		return
	}
	offset, count, ok := h.page(w, r)
	if !ok {
		return
	}
	resp, err := h.articles.ListDrafts(r.Context(), offset, count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeRaw(w, resp)
}

func (h *Handler) HandleConvertByURL(w http.ResponseWriter, r *http.Request) {
	var req request.ConvertByURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validArticleURL(req.URL) {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	payload, err := h.converter.Convert(r.Context(), req.URL, req.Force)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) HandleConversionStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}
	if !validArticleURL(rawURL) {
		h.writeJSONError(w, "Invalid URL format in query parameter", http.StatusBadRequest)
		return
	}

	rec, err := h.converter.Status(r.Context(), rawURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.ConversionStatusResponse{
		URL:             rec.URL,
		Title:           rec.Title,
		AssetsTotal:     rec.AssetsTotal,
		AssetsLocalized: rec.AssetsLocalized,
		AssetsFailed:    rec.AssetsFailed,
		DurationMS:      rec.DurationMS,
		ConvertedAt:     rec.ConvertedAt,
	})
}

func (h *Handler) HandleFailedAssets(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	failed, err := h.converter.FailedAssets(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := response.FailedAssetsResponse{Items: make([]response.FailedAssetResponse, 0, len(failed))}
	for _, fa := range failed {
		resp.Items = append(resp.Items, response.FailedAssetResponse{
			URL:                  fa.URL,
			Kind:                 fa.Kind,
			FailureReason:        fa.FailureReason,
			LastAttemptTimestamp: fa.LastAttemptTimestamp,
			AttemptCount:         fa.AttemptCount,
		})
	}
	resp.Count = len(resp.Items)
	h.writeJSON(w, http.StatusOK, resp)
}

// page reads offset and count, capping count at maxPageCount.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		h.writeJSONError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return 0, 0, false
	}
	count, err := intParam(r, "count", defaultPageCount)
	if err != nil || count <= 0 {
		h.writeJSONError(w, "count must be a positive integer", http.StatusBadRequest)
		return 0, 0, false
	}
	if count > maxPageCount {
		count = maxPageCount
	}
	return offset, count, true
}

func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func validArticleURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// writeError maps usecase errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *entity.UpstreamError
	switch {
	case errors.As(err, &upstream):
		h.writeJSONError(w, upstream.Message, http.StatusBadGateway)
	case errors.Is(err, entity.ErrAuth):
		h.writeJSONError(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, repository.ErrNotFound):
		h.writeJSONError(w, "Conversion not found for the given URL", http.StatusNotFound)
	case errors.Is(err, usecase.ErrLedgerUnavailable), errors.Is(err, errPlatformDisabled):
		h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		h.writeJSONError(w, "Request timed out", http.StatusGatewayTimeout)
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeRaw(w http.ResponseWriter, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
