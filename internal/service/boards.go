package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskboard/models"
)

type BoardInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"isPublic"`
}

type BoardUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

type ColumnInput struct {
	BoardID  int64  `json:"boardId"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type ColumnUpdate struct {
	Name     *string `json:"name"`
	Position *int    `json:"position"`
}

type TaskInput struct {
	BoardID     int64      `json:"boardId"`
	ColumnID    *int64     `json:"columnId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Budget      *float64   `json:"budget"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	AssigneeID  *int64     `json:"assigneeId"`
	ParentID    *int64     `json:"parentId"`
}

type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Budget      *float64   `json:"budget"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	AssigneeID  *int64     `json:"assigneeId"`
}

func (s *Service) CreateBoard(ctx context.Context, actor *models.User, in BoardInput) (*models.Board, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 200 {
		return nil, invalid("title is required and max length 200")
	}
	board := &models.Board{
		Title:       title,
		Description: in.Description,
		IsPublic:    true,
		CreatorID:   actor.ID,
	}
	if in.IsPublic != nil {
		board.IsPublic = *in.IsPublic
	}
	if err := s.store.CreateBoard(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *Service) ListMyBoards(ctx context.Context, actor *models.User, page models.Page) ([]models.Board, error) {
	return s.store.ListBoards(ctx, models.BoardFilter{CreatorID: &actor.ID, Page: normalizePage(page)})
}

func (s *Service) ListPublicBoards(ctx context.Context, page models.Page) ([]models.Board, error) {
	return s.store.ListBoards(ctx, models.BoardFilter{PublicOnly: true, Page: normalizePage(page)})
}

// viewableBoard доступна, если публичная или принадлежит actor
func (s *Service) viewableBoard(ctx context.Context, actor *models.User, id int64) (*models.Board, error) {
	board, err := s.store.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if !board.IsPublic && board.CreatorID != actor.ID {
		return nil, forbidden("not enough permissions")
	}
	return board, nil
}

func (s *Service) ownBoard(ctx context.Context, actor *models.User, id int64) (*models.Board, error) {
	board, err := s.store.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if board.CreatorID != actor.ID {
		return nil, forbidden("only the board owner can do this")
	}
	return board, nil
}

func (s *Service) GetBoard(ctx context.Context, actor *models.User, id int64) (*models.BoardDetails, error) {
	board, err := s.viewableBoard(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	columns, err := s.store.ListColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, models.TaskFilter{BoardID: &id})
	if err != nil {
		return nil, err
	}
	return &models.BoardDetails{Board: *board, Columns: columns, Tasks: tasks}, nil
}

func (s *Service) UpdateBoard(ctx context.Context, actor *models.User, id int64, in BoardUpdate) (*models.Board, error) {
	board, err := s.ownBoard(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > 200 {
			return nil, invalid("title is required and max length 200")
		}
		board.Title = title
	}
	if in.Description != nil {
		board.Description = *in.Description
	}
	if in.IsPublic != nil {
		board.IsPublic = *in.IsPublic
	}
	if err := s.store.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *Service) DeleteBoard(ctx context.Context, actor *models.User, id int64) error {
	if _, err := s.ownBoard(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeactivateBoard(ctx, id)
}

func (s *Service) CreateColumn(ctx context.Context, actor *models.User, in ColumnInput) (*models.Column, error) {
	if _, err := s.ownBoard(ctx, actor, in.BoardID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return nil, invalid("name is required and max length 100")
	}
	column := &models.Column{BoardID: in.BoardID, Name: name, Position: in.Position}
	if err := s.store.CreateColumn(ctx, column); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, invalid("column %q already exists on this board", name)
		}
		return nil, err
	}
	return column, nil
}

func (s *Service) ListColumns(ctx context.Context, actor *models.User, boardID int64) ([]models.Column, error) {
	if _, err := s.viewableBoard(ctx, actor, boardID); err != nil {
		return nil, err
	}
	return s.store.ListColumns(ctx, boardID)
}

// ownColumn загружает колонку и проверяет, что actor владеет её доской
func (s *Service) ownColumn(ctx context.Context, actor *models.User, id int64) (*models.Column, error) {
	column, err := s.store.GetColumn(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownBoard(ctx, actor, column.BoardID); err != nil {
		return nil, err
	}
	return column, nil
}

func (s *Service) UpdateColumn(ctx context.Context, actor *models.User, id int64, in ColumnUpdate) (*models.Column, error) {
	column, err := s.ownColumn(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 100 {
			return nil, invalid("name is required and max length 100")
		}
		column.Name = name
	}
	if in.Position != nil {
		column.Position = *in.Position
	}
	if err := s.store.UpdateColumn(ctx, column); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, invalid("column %q already exists on this board", column.Name)
		}
		return nil, err
	}
	return column, nil
}

func (s *Service) DeleteColumn(ctx context.Context, actor *models.User, id int64) error {
	if _, err := s.ownColumn(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeleteColumn(ctx, id)
}

func (s *Service) ReorderColumns(ctx context.Context, actor *models.User, positions []models.ColumnPosition) error {
	if len(positions) == 0 {
		return invalid("no columns to reorder")
	}
	for _, p := range positions {
		if _, err := s.ownColumn(ctx, actor, p.ID); err != nil {
			return err
		}
	}
	return s.store.ReorderColumns(ctx, positions)
}

func (s *Service) CreateTask(ctx context.Context, actor *models.User, in TaskInput) (*models.Task, error) {
	board, err := s.viewableBoard(ctx, actor, in.BoardID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 200 {
		return nil, invalid("title is required and max length 200")
	}
	priority, ok := models.ParsePriority(in.Priority)
	if !ok {
		return nil, invalid("unknown priority %q", in.Priority)
	}
	if in.Budget != nil && *in.Budget < 0 {
		return nil, invalid("budget must not be negative")
	}
	if in.ColumnID != nil {
		if err := s.checkColumnOnBoard(ctx, *in.ColumnID, board.ID); err != nil {
			return nil, err
		}
	}
	if in.ParentID != nil {
		parent, err := s.store.GetTask(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.BoardID != board.ID {
			return nil, invalid("parent task belongs to another board")
		}
	}

	task := &models.Task{
		BoardID:     board.ID,
		ColumnID:    in.ColumnID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		Budget:      in.Budget,
		DueDate:     in.DueDate,
		Tags:        normalizeTags(in.Tags),
		AssigneeID:  in.AssigneeID,
		CreatorID:   actor.ID,
		ParentID:    in.ParentID,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) checkColumnOnBoard(ctx context.Context, columnID, boardID int64) error {
	column, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		return err
	}
	if column.BoardID != boardID {
		return invalid("column belongs to another board")
	}
	return nil
}

func (s *Service) GetTask(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.viewableBoard(ctx, actor, task.BoardID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) ListBoardTasks(ctx context.Context, actor *models.User, boardID int64, page models.Page) ([]models.Task, error) {
	if _, err := s.viewableBoard(ctx, actor, boardID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, models.TaskFilter{BoardID: &boardID, Page: normalizePage(page)})
}

func (s *Service) ListMyTasks(ctx context.Context, actor *models.User, page models.Page) ([]models.Task, error) {
	return s.store.ListTasks(ctx, models.TaskFilter{CreatorID: &actor.ID, Page: normalizePage(page)})
}

func (s *Service) ListAssignedTasks(ctx context.Context, actor *models.User, page models.Page) ([]models.Task, error) {
	return s.store.ListTasks(ctx, models.TaskFilter{AssigneeID: &actor.ID, Page: normalizePage(page)})
}

// editableTask: менять задачу могут автор, исполнитель и владелец доски
func (s *Service) editableTask(ctx context.Context, actor *models.User, id int64) (*models.Task, *models.Board, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	board, err := s.store.GetBoard(ctx, task.BoardID)
	if err != nil {
		return nil, nil, err
	}
	isAssignee := task.AssigneeID != nil && *task.AssigneeID == actor.ID
	if task.CreatorID != actor.ID && board.CreatorID != actor.ID && !isAssignee {
		return nil, nil, forbidden("not enough permissions")
	}
	return task, board, nil
}

func (s *Service) UpdateTask(ctx context.Context, actor *models.User, id int64, in TaskUpdate) (*models.Task, error) {
	task, _, err := s.editableTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > 200 {
			return nil, invalid("title is required and max length 200")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		p, ok := models.ParsePriority(*in.Priority)
		if !ok {
			return nil, invalid("unknown priority %q", *in.Priority)
		}
		task.Priority = p
	}
	if in.Budget != nil {
		if *in.Budget < 0 {
			return nil, invalid("budget must not be negative")
		}
		task.Budget = in.Budget
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.Tags != nil {
		task.Tags = normalizeTags(in.Tags)
	}
	if in.AssigneeID != nil {
		task.AssigneeID = in.AssigneeID
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// MoveTask переносит задачу в другую колонку той же доски
func (s *Service) MoveTask(ctx context.Context, actor *models.User, id, columnID int64) (*models.Task, error) {
	task, board, err := s.editableTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkColumnOnBoard(ctx, columnID, board.ID); err != nil {
		return nil, err
	}
	task.ColumnID = &columnID
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, actor *models.User, id int64) error {
	task, board, err := s.editableTask(ctx, actor, id)
	if err != nil {
		return err
	}
	if task.CreatorID != actor.ID && board.CreatorID != actor.ID {
		return forbidden("only the task creator or board owner can delete it")
	}
	return s.store.DeleteTask(ctx, id)
}
