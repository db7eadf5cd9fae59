// Package storetest содержит хранилище в памяти с той же семантикой, что и db.Storage.
// Используется в тестах сервиса и HTTP-обработчиков.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taskboard/internal/service"
	"taskboard/models"
)

var _ service.Store = (*MemStore)(nil)

type MemStore struct {
	mu sync.Mutex

	seq       int64
	users     map[int64]models.User
	codes     map[string]models.BindingCode
	orders    map[int64]models.Order
	proposals map[int64]models.Proposal
	messages  map[int64]models.Message
	boards    map[int64]models.Board
	columns   map[int64]models.Column
	tasks     map[int64]models.Task
}

func New() *MemStore {
	return &MemStore{
		users:     map[int64]models.User{},
		codes:     map[string]models.BindingCode{},
		orders:    map[int64]models.Order{},
		proposals: map[int64]models.Proposal{},
		messages:  map[int64]models.Message{},
		boards:    map[int64]models.Board{},
		columns:   map[int64]models.Column{},
		tasks:     map[int64]models.Task{},
	}
}

func (m *MemStore) nextID() int64 {
	m.seq++
	return m.seq
}

func conflict(what string) error {
	return fmt.Errorf("%w: %s", models.ErrConflict, what)
}

func window[T any](items []T, p models.Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// users

func (m *MemStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.users {
		if other.Username == u.Username {
			return conflict("users_username_key")
		}
		if u.Email != nil && other.Email != nil && *other.Email == *u.Email {
			return conflict("users_email_key")
		}
		if u.TelegramID != nil && other.TelegramID != nil && *other.TelegramID == *u.TelegramID {
			return conflict("users_telegram_id_key")
		}
	}
	u.ID = m.nextID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (m *MemStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemStore) GetUserByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemStore) ListUsers(_ context.Context, page models.Page) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), nil
}

func (m *MemStore) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemStore) SetTelegram(_ context.Context, userID int64, telegramID *int64, telegramUsername *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.TelegramID, u.TelegramUsername = telegramID, telegramUsername
	m.users[userID] = u
	return nil
}

func (m *MemStore) CreateBindingCode(_ context.Context, c *models.BindingCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[c.Code]; ok {
		return conflict("telegram_binding_codes_pkey")
	}
	c.CreatedAt = time.Now()
	m.codes[c.Code] = *c
	return nil
}

func (m *MemStore) GetBindingCode(_ context.Context, code string) (*models.BindingCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (m *MemStore) PurgeExpiredBindingCodes(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for code, c := range m.codes {
		if !c.ExpiresAt.After(now) {
			delete(m.codes, code)
			n++
		}
	}
	return n, nil
}

func (m *MemStore) BindTelegram(_ context.Context, b models.TelegramBinding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[b.Code]; !ok {
		return models.ErrNotFound
	}
	u, ok := m.users[b.UserID]
	if !ok {
		return models.ErrNotFound
	}
	delete(m.codes, b.Code)
	if b.ReplaceUserID != 0 {
		delete(m.users, b.ReplaceUserID)
	}
	tgID := b.TelegramID
	u.TelegramID, u.TelegramUsername = &tgID, b.TelegramUsername
	m.users[u.ID] = u
	return nil
}

// orders

func (m *MemStore) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = *o
	return nil
}

func (m *MemStore) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &o, nil
}

func (m *MemStore) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.CreatorID != nil && o.CreatorID != *f.CreatorID {
			continue
		}
		if f.ExecutorID != nil && (o.AssignedExecutorID == nil || *o.AssignedExecutorID != *f.ExecutorID) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), nil
}

func (m *MemStore) UpdateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[o.ID]
	if !ok {
		return models.ErrNotFound
	}
	cur.Title, cur.Description, cur.Budget = o.Title, o.Description, o.Budget
	cur.Deadline, cur.Priority, cur.Tags = o.Deadline, o.Priority, o.Tags
	cur.UpdatedAt = time.Now()
	m.orders[o.ID] = cur
	o.UpdatedAt = cur.UpdatedAt
	return nil
}

func (m *MemStore) DeleteOrder(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.orders, id)
	for pid, p := range m.proposals {
		if p.OrderID == id {
			delete(m.proposals, pid)
		}
	}
	for mid, msg := range m.messages {
		if msg.OrderID == id {
			delete(m.messages, mid)
		}
	}
	return nil
}

// guardOrder возвращает заказ, если он в одном из статусов from; вызывается под mu
func (m *MemStore) guardOrder(id int64, from ...models.OrderStatus) (models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return o, fmt.Errorf("%w: order %d is not %v", models.ErrInvalidState, id, from)
	}
	for _, st := range from {
		if o.Status == st {
			return o, nil
		}
	}
	return o, fmt.Errorf("%w: order %d is not %v", models.ErrInvalidState, id, from)
}

func (m *MemStore) CompleteOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.guardOrder(id, models.OrderInProgress)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	o.Status, o.CompletedAt, o.UpdatedAt = models.OrderCompleted, &now, now
	m.orders[id] = o
	if o.AssignedExecutorID != nil {
		if u, ok := m.users[*o.AssignedExecutorID]; ok {
			u.CompletedTasks++
			m.users[u.ID] = u
		}
	}
	return &o, nil
}

func (m *MemStore) CancelOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.guardOrder(id, models.OrderOpen, models.OrderInProgress)
	if err != nil {
		return nil, err
	}
	o.Status, o.AssignedExecutorID, o.UpdatedAt = models.OrderCancelled, nil, time.Now()
	m.orders[id] = o
	for pid, p := range m.proposals {
		if p.OrderID == id && p.Status == models.ProposalPending {
			p.Status = models.ProposalRejected
			m.proposals[pid] = p
		}
	}
	return &o, nil
}

func (m *MemStore) RestoreOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.guardOrder(id, models.OrderCancelled)
	if err != nil {
		return nil, err
	}
	o.Status, o.AssignedExecutorID, o.CompletedAt, o.UpdatedAt = models.OrderOpen, nil, nil, time.Now()
	m.orders[id] = o
	return &o, nil
}

// proposals

func (m *MemStore) CreateProposal(_ context.Context, p *models.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[p.OrderID]; !ok {
		return fmt.Errorf("%w: referenced row does not exist", models.ErrValidation)
	}
	for _, other := range m.proposals {
		if other.OrderID == p.OrderID && other.ExecutorID == p.ExecutorID {
			return models.ErrDuplicateProposal
		}
	}
	p.ID = m.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.proposals[p.ID] = *p
	return nil
}

func (m *MemStore) GetProposal(_ context.Context, id int64) (*models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) ListProposals(_ context.Context, f models.ProposalFilter) ([]models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Proposal{}
	for _, p := range m.proposals {
		if f.OrderID != nil && p.OrderID != *f.OrderID {
			continue
		}
		if f.ExecutorID != nil && p.ExecutorID != *f.ExecutorID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), nil
}

func (m *MemStore) UpdateProposal(_ context.Context, p *models.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.proposals[p.ID]
	if !ok || cur.Status != models.ProposalPending {
		return fmt.Errorf("%w: proposal %d is no longer pending", models.ErrInvalidState, p.ID)
	}
	cur.Description, cur.Price, cur.EstimatedDuration = p.Description, p.Price, p.EstimatedDuration
	cur.UpdatedAt = time.Now()
	m.proposals[p.ID] = cur
	return nil
}

func (m *MemStore) DeleteProposal(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proposals[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.proposals, id)
	return nil
}

func (m *MemStore) SetProposalStatus(_ context.Context, id int64, status models.ProposalStatus) (*models.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != models.ProposalPending {
		return nil, fmt.Errorf("%w: proposal %d is not pending", models.ErrInvalidState, id)
	}
	p.Status, p.UpdatedAt = status, time.Now()
	m.proposals[id] = p
	return &p, nil
}

func (m *MemStore) AcceptProposal(_ context.Context, id int64) (*models.Proposal, *models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != models.ProposalPending {
		return nil, nil, fmt.Errorf("%w: proposal %d is not pending", models.ErrInvalidState, id)
	}
	o, err := m.guardOrder(p.OrderID, models.OrderOpen)
	if err != nil {
		return nil, nil, err
	}
	for _, other := range m.proposals {
		if other.OrderID == o.ID && other.Status == models.ProposalAccepted {
			return nil, nil, fmt.Errorf("%w: order %d already had an accepted proposal", models.ErrInvalidState, o.ID)
		}
	}

	now := time.Now()
	p.Status, p.UpdatedAt = models.ProposalAccepted, now
	m.proposals[id] = p

	executor := p.ExecutorID
	o.Status, o.AssignedExecutorID, o.UpdatedAt = models.OrderInProgress, &executor, now
	m.orders[o.ID] = o

	for pid, other := range m.proposals {
		if other.OrderID == o.ID && pid != id && other.Status == models.ProposalPending {
			other.Status, other.UpdatedAt = models.ProposalRejected, now
			m.proposals[pid] = other
		}
	}
	return &p, &o, nil
}

// messages

func (m *MemStore) CreateMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.nextID()
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	m.messages[msg.ID] = *msg
	return nil
}

func (m *MemStore) GetMessage(_ context.Context, id int64) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &msg, nil
}

func (m *MemStore) ListOrderMessages(_ context.Context, orderID int64, page models.Page) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Message{}
	for _, msg := range m.messages {
		if msg.OrderID == orderID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), nil
}

func (m *MemStore) MarkMessageRead(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return models.ErrNotFound
	}
	msg.IsRead = true
	m.messages[id] = msg
	return nil
}

func (m *MemStore) MarkOrderMessagesRead(_ context.Context, orderID, receiverID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, msg := range m.messages {
		if msg.OrderID == orderID && msg.ReceiverID == receiverID && !msg.IsRead {
			msg.IsRead = true
			m.messages[id] = msg
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CountUnread(_ context.Context, receiverID int64, orderID *int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ReceiverID != receiverID || msg.IsRead {
			continue
		}
		if orderID != nil && msg.OrderID != *orderID {
			continue
		}
		n++
	}
	return n, nil
}

func (m *MemStore) DeleteMessage(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

// boards

func (m *MemStore) CreateBoard(_ context.Context, b *models.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID()
	b.IsActive = true
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.boards[b.ID] = *b
	return nil
}

func (m *MemStore) GetBoard(_ context.Context, id int64) (*models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || !b.IsActive {
		return nil, models.ErrNotFound
	}
	return &b, nil
}

func (m *MemStore) ListBoards(_ context.Context, f models.BoardFilter) ([]models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Board{}
	for _, b := range m.boards {
		if !b.IsActive {
			continue
		}
		if f.CreatorID != nil && b.CreatorID != *f.CreatorID {
			continue
		}
		if f.PublicOnly && !b.IsPublic {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), nil
}

func (m *MemStore) UpdateBoard(_ context.Context, b *models.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.boards[b.ID]
	if !ok || !cur.IsActive {
		return models.ErrNotFound
	}
	cur.Title, cur.Description, cur.IsPublic, cur.UpdatedAt = b.Title, b.Description, b.IsPublic, time.Now()
	m.boards[b.ID] = cur
	return nil
}

func (m *MemStore) DeactivateBoard(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok || !b.IsActive {
		return models.ErrNotFound
	}
	b.IsActive = false
	m.boards[id] = b
	return nil
}

func (m *MemStore) CreateColumn(_ context.Context, c *models.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.columns {
		if other.BoardID == c.BoardID && other.Name == c.Name {
			return conflict("uq_column_board_name")
		}
	}
	c.ID = m.nextID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.columns[c.ID] = *c
	return nil
}

func (m *MemStore) GetColumn(_ context.Context, id int64) (*models.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.columns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (m *MemStore) ListColumns(_ context.Context, boardID int64) ([]models.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Column{}
	for _, c := range m.columns {
		if c.BoardID == boardID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) UpdateColumn(_ context.Context, c *models.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.columns[c.ID]; !ok {
		return models.ErrNotFound
	}
	for _, other := range m.columns {
		if other.ID != c.ID && other.BoardID == c.BoardID && other.Name == c.Name {
			return conflict("uq_column_board_name")
		}
	}
	c.UpdatedAt = time.Now()
	m.columns[c.ID] = *c
	return nil
}

func (m *MemStore) DeleteColumn(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.columns[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.columns, id)
	for tid, t := range m.tasks {
		if t.ColumnID != nil && *t.ColumnID == id {
			delete(m.tasks, tid)
		}
	}
	return nil
}

func (m *MemStore) ReorderColumns(_ context.Context, positions []models.ColumnPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range positions {
		if _, ok := m.columns[p.ID]; !ok {
			return models.ErrNotFound
		}
	}
	for _, p := range positions {
		c := m.columns[p.ID]
		c.Position = p.Position
		m.columns[p.ID] = c
	}
	return nil
}

func (m *MemStore) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemStore) GetTask(_ context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (m *MemStore) ListTasks(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Task{}
	for _, t := range m.tasks {
		if f.BoardID != nil && t.BoardID != *f.BoardID {
			continue
		}
		if f.ColumnID != nil && (t.ColumnID == nil || *t.ColumnID != *f.ColumnID) {
			continue
		}
		if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
			continue
		}
		if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), nil
}

func (m *MemStore) UpdateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return models.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemStore) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}
