package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskboard/models"
)

type OrderInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Deadline    time.Time `json:"deadline"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
}

// OrderUpdate частичное обновление: nil означает "не менять"
type OrderUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Budget      *float64   `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	Priority    *string    `json:"priority"`
	Tags        []string   `json:"tags"`
}

// OrderScope выбор списка заказов
type OrderScope int

const (
	ScopeAll OrderScope = iota
	ScopeOpen
	ScopeMine
)

func (s *Service) CreateOrder(ctx context.Context, actor *models.User, in OrderInput) (*models.Order, error) {
	if err := requireRole(actor, models.RoleCustomer, models.RoleAdmin); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 200 {
		return nil, invalid("title is required and max length 200")
	}
	if in.Budget <= 0 {
		return nil, invalid("budget must be positive")
	}
	if !in.Deadline.After(s.now()) {
		return nil, invalid("deadline must be in the future")
	}
	priority, ok := models.ParsePriority(in.Priority)
	if !ok {
		return nil, invalid("unknown priority %q", in.Priority)
	}

	order := &models.Order{
		Title:       title,
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
		Priority:    priority,
		Status:      models.OrderOpen,
		Tags:        normalizeTags(in.Tags),
		CreatorID:   actor.ID,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	zap.L().Info("order created", zap.Int64("order_id", order.ID), zap.Int64("creator_id", actor.ID))
	return order, nil
}

// GetOrder возвращает заказ с откликами. Заказчик видит только свои заказы.
func (s *Service) GetOrder(ctx context.Context, actor *models.User, id int64) (*models.OrderDetails, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCustomer && order.CreatorID != actor.ID {
		return nil, forbidden("not enough permissions")
	}

	proposals, err := s.store.ListProposals(ctx, models.ProposalFilter{OrderID: &order.ID})
	if err != nil {
		return nil, err
	}
	return &models.OrderDetails{Order: *order, Proposals: proposals}, nil
}

func (s *Service) ListOrders(ctx context.Context, actor *models.User, scope OrderScope, status *models.OrderStatus, page models.Page) ([]models.Order, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("unknown status %q", *status)
	}
	f := models.OrderFilter{Status: status, Page: normalizePage(page)}

	switch scope {
	case ScopeAll:
		if err := requireRole(actor, models.RoleAdmin, models.RoleExecutor); err != nil {
			return nil, err
		}
	case ScopeOpen:
		if err := requireRole(actor, models.RoleExecutor, models.RoleAdmin); err != nil {
			return nil, err
		}
		open := models.OrderOpen
		f.Status = &open
	case ScopeMine:
		switch actor.Role {
		case models.RoleCustomer:
			f.CreatorID = &actor.ID
		case models.RoleExecutor:
			f.ExecutorID = &actor.ID
		}
	}
	return s.store.ListOrders(ctx, f)
}

// ownOrder загружает заказ и проверяет, что actor его автор
func (s *Service) ownOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CreatorID != actor.ID {
		return nil, forbidden("only the order creator can do this")
	}
	return order, nil
}

func (s *Service) UpdateOrder(ctx context.Context, actor *models.User, id int64, in OrderUpdate) (*models.Order, error) {
	order, err := s.ownOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > 200 {
			return nil, invalid("title is required and max length 200")
		}
		order.Title = title
	}
	if in.Description != nil {
		order.Description = *in.Description
	}
	if in.Budget != nil {
		if *in.Budget <= 0 {
			return nil, invalid("budget must be positive")
		}
		order.Budget = *in.Budget
	}
	if in.Deadline != nil {
		if !in.Deadline.After(s.now()) {
			return nil, invalid("deadline must be in the future")
		}
		order.Deadline = *in.Deadline
	}
	if in.Priority != nil {
		p, ok := models.ParsePriority(*in.Priority)
		if !ok {
			return nil, invalid("unknown priority %q", *in.Priority)
		}
		order.Priority = p
	}
	if in.Tags != nil {
		order.Tags = normalizeTags(in.Tags)
	}

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, actor *models.User, id int64) error {
	if _, err := s.ownOrder(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	zap.L().Info("order deleted", zap.Int64("order_id", id))
	return nil
}

func (s *Service) CompleteOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error) {
	order, err := s.ownOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderInProgress {
		return nil, invalidState("only orders in progress can be completed")
	}
	order, err = s.store.CompleteOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	zap.L().Info("order completed", zap.Int64("order_id", id))
	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error) {
	order, err := s.ownOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderOpen && order.Status != models.OrderInProgress {
		return nil, invalidState("only open or in-progress orders can be cancelled")
	}
	order, err = s.store.CancelOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	zap.L().Info("order cancelled", zap.Int64("order_id", id))
	return order, nil
}

func (s *Service) RestoreOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error) {
	order, err := s.ownOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderCancelled {
		return nil, invalidState("only cancelled orders can be restored")
	}
	order, err = s.store.RestoreOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	zap.L().Info("order restored", zap.Int64("order_id", id))
	return order, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
