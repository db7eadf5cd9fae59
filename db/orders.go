package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"taskboard/models"
)

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
        INSERT INTO orders (title, description, budget, deadline, priority, status, tags, creator_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		o.Title, o.Description, o.Budget, o.Deadline, o.Priority, o.Status, o.Tags, o.CreatorID).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o := &models.Order{}
	if err := s.db.GetContext(ctx, o, `SELECT * FROM orders WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return o, nil
}

func (s *Storage) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	b := psql.Select("*").From("orders").OrderBy("created_at DESC", "id DESC")
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": *f.Status})
	}
	if f.CreatorID != nil {
		b = b.Where(sq.Eq{"creator_id": *f.CreatorID})
	}
	if f.ExecutorID != nil {
		b = b.Where(sq.Eq{"assigned_executor_id": *f.ExecutorID})
	}

	orders := []models.Order{}
	if err := s.selectBuilt(ctx, &orders, paginate(b, f.Page)); err != nil {
		return nil, mapErr(err)
	}
	return orders, nil
}

// UpdateOrder сохраняет редактируемые поля заказа; статус и исполнитель здесь не меняются
func (s *Storage) UpdateOrder(ctx context.Context, o *models.Order) error {
	query := `
        UPDATE orders
        SET title = $1, description = $2, budget = $3, deadline = $4, priority = $5, tags = $6, updated_at = NOW()
        WHERE id = $7
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, o.Title, o.Description, o.Budget, o.Deadline, o.Priority, o.Tags, o.ID).
		Scan(&o.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) DeleteOrder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

func transitionQuery(id int64, set map[string]interface{}, from ...models.OrderStatus) sq.UpdateBuilder {
	return psql.Update("orders").
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING *")
}

// rejectPendingQuery отклоняет ожидающие отклики заказа; принятый отклик не трогается
func rejectPendingQuery(orderID int64) sq.UpdateBuilder {
	return psql.Update("proposals").
		Set("status", models.ProposalRejected).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"order_id": orderID, "status": models.ProposalPending})
}

// transitionOrder выполняет условное обновление статуса внутри транзакции.
// Если заказ не в одном из статусов from, возвращается ErrInvalidState.
func transitionOrder(ctx context.Context, tx *sqlx.Tx, id int64, set map[string]interface{}, from ...models.OrderStatus) (*models.Order, error) {
	query, args, err := transitionQuery(id, set, from...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	o := &models.Order{}
	if err := tx.GetContext(ctx, o, query, args...); err != nil {
		err = mapErr(err)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d is not %v", models.ErrInvalidState, id, from)
		}
		return nil, err
	}
	return o, nil
}

// CompleteOrder переводит заказ из in_progress в completed и засчитывает исполнителю выполненную задачу
func (s *Storage) CompleteOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order *models.Order
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		o, err := transitionOrder(ctx, tx, id, map[string]interface{}{
			"status":       models.OrderCompleted,
			"completed_at": sq.Expr("NOW()"),
		}, models.OrderInProgress)
		if err != nil {
			return err
		}
		if o.AssignedExecutorID != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET completed_tasks = completed_tasks + 1, updated_at = NOW() WHERE id = $1`,
				*o.AssignedExecutorID); err != nil {
				return mapErr(err)
			}
		}
		order = o
		return nil
	})
	return order, err
}

// CancelOrder отменяет открытый или выполняемый заказ и отклоняет ожидающие отклики
func (s *Storage) CancelOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order *models.Order
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		o, err := transitionOrder(ctx, tx, id, map[string]interface{}{
			"status":               models.OrderCancelled,
			"assigned_executor_id": nil,
		}, models.OrderOpen, models.OrderInProgress)
		if err != nil {
			return err
		}
		query, args, err := rejectPendingQuery(id).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapErr(err)
		}
		order = o
		return nil
	})
	return order, err
}

// RestoreOrder возвращает отменённый заказ в open
func (s *Storage) RestoreOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order *models.Order
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		o, err := transitionOrder(ctx, tx, id, map[string]interface{}{
			"status":               models.OrderOpen,
			"assigned_executor_id": nil,
			"completed_at":         nil,
		}, models.OrderCancelled)
		order = o
		return err
	})
	return order, err
}
