package handlers

import (
	"fmt"
	"net/http"

	"taskboard/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler обрабатывает POST /api/auth/register
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler обрабатывает POST /api/auth/login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.svc.ListUsers(r.Context(), actor, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	id, err := urlID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, fmt.Errorf("user: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteUser(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "user deleted"})
}
