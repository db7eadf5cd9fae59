package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"taskboard/models"
)

func (s *Storage) CreateBoard(ctx context.Context, b *models.Board) error {
	query := `
        INSERT INTO boards (title, description, is_public, creator_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, is_active, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, b.Title, b.Description, b.IsPublic, b.CreatorID).
		Scan(&b.ID, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return mapErr(err)
}

// GetBoard возвращает только активные (не удалённые) доски
func (s *Storage) GetBoard(ctx context.Context, id int64) (*models.Board, error) {
	b := &models.Board{}
	if err := s.db.GetContext(ctx, b, `SELECT * FROM boards WHERE id = $1 AND is_active`, id); err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (s *Storage) ListBoards(ctx context.Context, f models.BoardFilter) ([]models.Board, error) {
	q := psql.Select("*").From("boards").
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at DESC", "id DESC")
	if f.CreatorID != nil {
		q = q.Where(sq.Eq{"creator_id": *f.CreatorID})
	}
	if f.PublicOnly {
		q = q.Where(sq.Eq{"is_public": true})
	}

	boards := []models.Board{}
	if err := s.selectBuilt(ctx, &boards, paginate(q, f.Page)); err != nil {
		return nil, mapErr(err)
	}
	return boards, nil
}

func (s *Storage) UpdateBoard(ctx context.Context, b *models.Board) error {
	query := `
        UPDATE boards
        SET title = $1, description = $2, is_public = $3, updated_at = NOW()
        WHERE id = $4 AND is_active
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, b.Title, b.Description, b.IsPublic, b.ID).Scan(&b.UpdatedAt)
	return mapErr(err)
}

// DeactivateBoard мягко удаляет доску
func (s *Storage) DeactivateBoard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE boards SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

func (s *Storage) CreateColumn(ctx context.Context, c *models.Column) error {
	query := `
        INSERT INTO board_columns (board_id, name, position)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, c.BoardID, c.Name, c.Position).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetColumn(ctx context.Context, id int64) (*models.Column, error) {
	c := &models.Column{}
	if err := s.db.GetContext(ctx, c, `SELECT * FROM board_columns WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (s *Storage) ListColumns(ctx context.Context, boardID int64) ([]models.Column, error) {
	columns := []models.Column{}
	err := s.db.SelectContext(ctx, &columns,
		`SELECT * FROM board_columns WHERE board_id = $1 ORDER BY position, id`, boardID)
	if err != nil {
		return nil, mapErr(err)
	}
	return columns, nil
}

func (s *Storage) UpdateColumn(ctx context.Context, c *models.Column) error {
	query := `
        UPDATE board_columns SET name = $1, position = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, c.Name, c.Position, c.ID).Scan(&c.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) DeleteColumn(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM board_columns WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// ReorderColumns сохраняет новые позиции колонок одной транзакцией
func (s *Storage) ReorderColumns(ctx context.Context, positions []models.ColumnPosition) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, p := range positions {
			res, err := tx.ExecContext(ctx,
				`UPDATE board_columns SET position = $1, updated_at = NOW() WHERE id = $2`, p.Position, p.ID)
			if err != nil {
				return mapErr(err)
			}
			if err := requireAffected(res, models.ErrNotFound); err != nil {
				return err
			}
		}
		return nil
	})
}
