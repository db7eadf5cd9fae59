package handlers

import (
	"net/http"
	"time"
)

type bindingCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateBindingCodeHandler POST /api/telegram/generate-code: код для команды /link в боте
func (h *Handler) GenerateBindingCodeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	bc, err := h.svc.GenerateBindingCode(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bindingCodeResponse{Code: bc.Code, ExpiresAt: bc.ExpiresAt})
}

func (h *Handler) TelegramStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.TelegramStatus(actor))
}

func (h *Handler) UnlinkTelegramHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.UnlinkTelegram(r.Context(), actor); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "telegram unlinked"})
}
