package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"taskboard/internal/middleware"
	"taskboard/internal/service"
	"taskboard/models"
)

const maxBodySize = 1 << 20

// Handler оборачивает сервис для HTTP
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// decodeJSON читает тело запроса с ограничением размера
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read request body", models.ErrValidation)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON format", models.ErrValidation)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrDuplicateProposal),
		errors.Is(err, models.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError переводит ошибку сервиса в статус и тело {"detail": ...}
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err))
		detail = "internal server error"
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

// currentUser пользователь, положенный в контекст middleware.Auth
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("%w: not authenticated", models.ErrUnauthorized))
		return nil, false
	}
	return user, true
}

func urlID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", models.ErrValidation, name)
	}
	return id, nil
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) models.Page {
	page := models.Page{Limit: service.DefaultPageLimit}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= service.MaxPageLimit {
			page.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			page.Offset = o
		}
	}
	return page
}
