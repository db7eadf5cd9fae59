package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskboard/models"
)

func (s *Storage) CreateTask(ctx context.Context, t *models.Task) error {
	query := `
        INSERT INTO tasks (board_id, column_id, title, description, priority, budget, due_date, tags, assignee_id, creator_id, parent_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		t.BoardID, t.ColumnID, t.Title, t.Description, t.Priority, t.Budget, t.DueDate, t.Tags,
		t.AssigneeID, t.CreatorID, t.ParentID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t := &models.Task{}
	if err := s.db.GetContext(ctx, t, `SELECT * FROM tasks WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (s *Storage) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	b := psql.Select("*").From("tasks").OrderBy("created_at DESC", "id DESC")
	if f.BoardID != nil {
		b = b.Where(sq.Eq{"board_id": *f.BoardID})
	}
	if f.ColumnID != nil {
		b = b.Where(sq.Eq{"column_id": *f.ColumnID})
	}
	if f.CreatorID != nil {
		b = b.Where(sq.Eq{"creator_id": *f.CreatorID})
	}
	if f.AssigneeID != nil {
		b = b.Where(sq.Eq{"assignee_id": *f.AssigneeID})
	}

	tasks := []models.Task{}
	if err := s.selectBuilt(ctx, &tasks, paginate(b, f.Page)); err != nil {
		return nil, mapErr(err)
	}
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *models.Task) error {
	query := `
        UPDATE tasks
        SET column_id = $1, title = $2, description = $3, priority = $4, budget = $5, due_date = $6,
            tags = $7, assignee_id = $8, parent_id = $9, updated_at = NOW()
        WHERE id = $10
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		t.ColumnID, t.Title, t.Description, t.Priority, t.Budget, t.DueDate, t.Tags, t.AssigneeID, t.ParentID, t.ID).
		Scan(&t.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}
