package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"taskboard/models"
)

func (s *Storage) CreateProposal(ctx context.Context, p *models.Proposal) error {
	query := `
        INSERT INTO proposals (order_id, executor_id, description, price, estimated_duration, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		p.OrderID, p.ExecutorID, p.Description, p.Price, p.EstimatedDuration, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetProposal(ctx context.Context, id int64) (*models.Proposal, error) {
	p := &models.Proposal{}
	if err := s.db.GetContext(ctx, p, `SELECT * FROM proposals WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (s *Storage) ListProposals(ctx context.Context, f models.ProposalFilter) ([]models.Proposal, error) {
	b := psql.Select("*").From("proposals").OrderBy("created_at DESC", "id DESC")
	if f.OrderID != nil {
		b = b.Where(sq.Eq{"order_id": *f.OrderID})
	}
	if f.ExecutorID != nil {
		b = b.Where(sq.Eq{"executor_id": *f.ExecutorID})
	}
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": *f.Status})
	}

	proposals := []models.Proposal{}
	if err := s.selectBuilt(ctx, &proposals, paginate(b, f.Page)); err != nil {
		return nil, mapErr(err)
	}
	return proposals, nil
}

// UpdateProposal меняет цену, описание и срок, пока отклик ожидает решения
func (s *Storage) UpdateProposal(ctx context.Context, p *models.Proposal) error {
	query := `
        UPDATE proposals
        SET description = $1, price = $2, estimated_duration = $3, updated_at = NOW()
        WHERE id = $4 AND status = $5
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, p.Description, p.Price, p.EstimatedDuration, p.ID, models.ProposalPending).
		Scan(&p.UpdatedAt)
	if errors.Is(mapErr(err), models.ErrNotFound) {
		return fmt.Errorf("%w: proposal %d is no longer pending", models.ErrInvalidState, p.ID)
	}
	return mapErr(err)
}

func (s *Storage) DeleteProposal(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// SetProposalStatus переводит отклик из pending в status
func (s *Storage) SetProposalStatus(ctx context.Context, id int64, status models.ProposalStatus) (*models.Proposal, error) {
	p := &models.Proposal{}
	err := s.db.GetContext(ctx, p, `
        UPDATE proposals SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
        RETURNING *`, status, id, models.ProposalPending)
	if err != nil {
		err = mapErr(err)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: proposal %d is not pending", models.ErrInvalidState, id)
		}
		return nil, err
	}
	return p, nil
}

// AcceptProposal в одной транзакции принимает отклик, назначает исполнителя
// и отклоняет остальные ожидающие отклики по заказу.
// Заказ обновляется только из open, поэтому из двух параллельных принятий проходит первое.
func (s *Storage) AcceptProposal(ctx context.Context, id int64) (*models.Proposal, *models.Order, error) {
	var (
		proposal *models.Proposal
		order    *models.Order
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		p := &models.Proposal{}
		err := tx.GetContext(ctx, p, `
            UPDATE proposals SET status = $1, updated_at = NOW()
            WHERE id = $2 AND status = $3
            RETURNING *`, models.ProposalAccepted, id, models.ProposalPending)
		if err != nil {
			err = mapErr(err)
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("%w: proposal %d is not pending", models.ErrInvalidState, id)
			}
			return err
		}

		o, err := transitionOrder(ctx, tx, p.OrderID, map[string]interface{}{
			"status":               models.OrderInProgress,
			"assigned_executor_id": p.ExecutorID,
		}, models.OrderOpen)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
            UPDATE proposals SET status = $1, updated_at = NOW()
            WHERE order_id = $2 AND id <> $3 AND status = $4`,
			models.ProposalRejected, p.OrderID, p.ID, models.ProposalPending); err != nil {
			return mapErr(err)
		}

		proposal, order = p, o
		return nil
	})
	return proposal, order, err
}
