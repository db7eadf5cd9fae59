package handlers

import (
	"context"
	"net/http"

	"taskboard/internal/service"
	"taskboard/models"
)

// CreateOrderHandler обрабатывает POST /api/orders
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in service.OrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(scope service.OrderScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}

		var status *models.OrderStatus
		if s := r.URL.Query().Get("status"); s != "" {
			st := models.OrderStatus(s)
			status = &st
		}

		orders, err := h.svc.ListOrders(r.Context(), actor, scope, status, parsePaginationParams(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

// ListOrdersHandler GET /api/orders: все заказы (исполнители и админ), фильтр ?status=
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	h.listOrders(service.ScopeAll)(w, r)
}

// ListOpenOrdersHandler GET /api/orders/open
func (h *Handler) ListOpenOrdersHandler(w http.ResponseWriter, r *http.Request) {
	h.listOrders(service.ScopeOpen)(w, r)
}

// ListMyOrdersHandler GET /api/orders/my: свои для заказчика, назначенные для исполнителя
func (h *Handler) ListMyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	h.listOrders(service.ScopeMine)(w, r)
}

func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.svc.GetOrder(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.OrderUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.svc.UpdateOrder(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "order deleted"})
}

type orderTransition func(ctx context.Context, actor *models.User, id int64) (*models.Order, error)

// transitionOrder общий обработчик для complete / cancel / restore
func (h *Handler) transitionOrder(fn orderTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, err := urlID(r, "orderId")
		if err != nil {
			writeError(w, r, err)
			return
		}

		order, err := fn(r.Context(), actor, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func (h *Handler) CompleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(h.svc.CompleteOrder)(w, r)
}

func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(h.svc.CancelOrder)(w, r)
}

func (h *Handler) RestoreOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.transitionOrder(h.svc.RestoreOrder)(w, r)
}
