package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taskboard/models"
)

const (
	constraintProposalOrderExecutor = "uq_proposal_order_executor"
	constraintAcceptedPerOrder      = "uq_proposal_accepted_per_order"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Ping проверяет соединение с базой
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx выполняет fn в транзакции, откатывая её при ошибке
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// mapErr переводит ошибки драйвера в доменные
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == pgerrcode.UniqueViolation && pqErr.Constraint == constraintProposalOrderExecutor:
			return models.ErrDuplicateProposal
		case code == pgerrcode.UniqueViolation && pqErr.Constraint == constraintAcceptedPerOrder:
			return fmt.Errorf("%w: order already has an accepted proposal", models.ErrInvalidState)
		case code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", models.ErrConflict, pqErr.Constraint)
		case code == pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: referenced row does not exist", models.ErrValidation)
		case pgerrcode.IsIntegrityConstraintViolation(code):
			return fmt.Errorf("%w: %s", models.ErrValidation, pqErr.Message)
		}
	}
	return err
}

// requireAffected возвращает err, если запрос не затронул ни одной строки
func requireAffected(res sql.Result, err error) error {
	n, rerr := res.RowsAffected()
	if rerr != nil {
		return rerr
	}
	if n == 0 {
		return err
	}
	return nil
}

func paginate(b sq.SelectBuilder, p models.Page) sq.SelectBuilder {
	if p.Limit > 0 {
		b = b.Limit(uint64(p.Limit))
	}
	if p.Offset > 0 {
		b = b.Offset(uint64(p.Offset))
	}
	return b
}

func (s *Storage) selectBuilt(ctx context.Context, dest interface{}, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}
