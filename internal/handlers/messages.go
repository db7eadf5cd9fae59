package handlers

import (
	"net/http"

	"taskboard/internal/service"
)

// SendMessageHandler обрабатывает POST /api/messages
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in service.MessageInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) OrderMessagesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	msgs, err := h.svc.OrderMessages(r.Context(), actor, orderID, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	count, err := h.svc.UnreadCount(r.Context(), actor, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *Handler) OrderUnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := h.svc.UnreadCount(r.Context(), actor, &orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *Handler) MarkMessageReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "messageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.MarkMessageRead(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "message marked as read"})
}

func (h *Handler) MarkOrderMessagesReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.MarkOrderMessagesRead(r.Context(), actor, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

func (h *Handler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "messageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteMessage(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "message deleted"})
}
