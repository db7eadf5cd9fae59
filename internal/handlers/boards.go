package handlers

import (
	"net/http"

	"taskboard/internal/service"
	"taskboard/models"
)

type reorderRequest struct {
	Columns []models.ColumnPosition `json:"columns"`
}

type moveTaskRequest struct {
	ColumnID int64 `json:"columnId"`
}

// boards

func (h *Handler) CreateBoardHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in service.BoardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	board, err := h.svc.CreateBoard(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

func (h *Handler) ListMyBoardsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	boards, err := h.svc.ListMyBoards(r.Context(), actor, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

// ListPublicBoardsHandler GET /api/boards/public, без авторизации
func (h *Handler) ListPublicBoardsHandler(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.ListPublicBoards(r.Context(), parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *Handler) GetBoardHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "boardId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	board, err := h.svc.GetBoard(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) UpdateBoardHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "boardId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.BoardUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	board, err := h.svc.UpdateBoard(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) DeleteBoardHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "boardId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteBoard(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "board deleted"})
}

// columns

func (h *Handler) CreateColumnHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in service.ColumnInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	column, err := h.svc.CreateColumn(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, column)
}

func (h *Handler) ListColumnsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, err := urlID(r, "boardId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	columns, err := h.svc.ListColumns(r.Context(), actor, boardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, columns)
}

func (h *Handler) UpdateColumnHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "columnId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.ColumnUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	column, err := h.svc.UpdateColumn(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, column)
}

func (h *Handler) DeleteColumnHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "columnId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteColumn(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "column deleted"})
}

func (h *Handler) ReorderColumnsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in reorderRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.ReorderColumns(r.Context(), actor, in.Columns); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "columns reordered"})
}

// tasks

func (h *Handler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in service.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.svc.CreateTask(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "taskId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.svc.GetTask(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) ListBoardTasksHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	boardID, err := urlID(r, "boardId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.svc.ListBoardTasks(r.Context(), actor, boardID, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListMyTasksHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	tasks, err := h.svc.ListMyTasks(r.Context(), actor, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) ListAssignedTasksHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	tasks, err := h.svc.ListAssignedTasks(r.Context(), actor, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "taskId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.TaskUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.svc.UpdateTask(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// MoveTaskHandler PATCH /api/tasks/{taskId}/column
func (h *Handler) MoveTaskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "taskId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in moveTaskRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.svc.MoveTask(r.Context(), actor, id, in.ColumnID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "taskId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteTask(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "task deleted"})
}
