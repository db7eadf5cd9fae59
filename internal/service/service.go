// Package service содержит все бизнес-правила маркетплейса.
// HTTP API и Telegram-бот вызывают одни и те же методы, поэтому проверки прав
// и переходы статусов описаны только здесь.
package service

import (
	"context"
	"fmt"
	"time"

	"taskboard/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	ListUsers(ctx context.Context, page models.Page) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	SetTelegram(ctx context.Context, userID int64, telegramID *int64, telegramUsername *string) error

	CreateBindingCode(ctx context.Context, c *models.BindingCode) error
	GetBindingCode(ctx context.Context, code string) (*models.BindingCode, error)
	PurgeExpiredBindingCodes(ctx context.Context, now time.Time) (int64, error)
	BindTelegram(ctx context.Context, b models.TelegramBinding) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id int64) error
	CompleteOrder(ctx context.Context, id int64) (*models.Order, error)
	CancelOrder(ctx context.Context, id int64) (*models.Order, error)
	RestoreOrder(ctx context.Context, id int64) (*models.Order, error)

	CreateProposal(ctx context.Context, p *models.Proposal) error
	GetProposal(ctx context.Context, id int64) (*models.Proposal, error)
	ListProposals(ctx context.Context, f models.ProposalFilter) ([]models.Proposal, error)
	UpdateProposal(ctx context.Context, p *models.Proposal) error
	DeleteProposal(ctx context.Context, id int64) error
	SetProposalStatus(ctx context.Context, id int64, status models.ProposalStatus) (*models.Proposal, error)
	AcceptProposal(ctx context.Context, id int64) (*models.Proposal, *models.Order, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	ListOrderMessages(ctx context.Context, orderID int64, page models.Page) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id int64) error
	MarkOrderMessagesRead(ctx context.Context, orderID, receiverID int64) (int64, error)
	CountUnread(ctx context.Context, receiverID int64, orderID *int64) (int, error)
	DeleteMessage(ctx context.Context, id int64) error
}

type BoardStore interface {
	CreateBoard(ctx context.Context, b *models.Board) error
	GetBoard(ctx context.Context, id int64) (*models.Board, error)
	ListBoards(ctx context.Context, f models.BoardFilter) ([]models.Board, error)
	UpdateBoard(ctx context.Context, b *models.Board) error
	DeactivateBoard(ctx context.Context, id int64) error

	CreateColumn(ctx context.Context, c *models.Column) error
	GetColumn(ctx context.Context, id int64) (*models.Column, error)
	ListColumns(ctx context.Context, boardID int64) ([]models.Column, error)
	UpdateColumn(ctx context.Context, c *models.Column) error
	DeleteColumn(ctx context.Context, id int64) error
	ReorderColumns(ctx context.Context, positions []models.ColumnPosition) error

	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// Store хранилище всех сущностей; реализуется db.Storage
type Store interface {
	UserStore
	OrderStore
	MessageStore
	BoardStore
}

// TokenIssuer выпускает access-токены при входе
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

type Options struct {
	BindingCodeTTL time.Duration
	Now            func() time.Time
}

type Service struct {
	store          Store
	tokens         TokenIssuer
	bindingCodeTTL time.Duration
	now            func() time.Time
}

func New(store Store, tokens TokenIssuer, opts Options) *Service {
	if opts.BindingCodeTTL <= 0 {
		opts.BindingCodeTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:          store,
		tokens:         tokens,
		bindingCodeTTL: opts.BindingCodeTTL,
		now:            opts.Now,
	}
}

func requireRole(actor *models.User, roles ...models.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s is not allowed to do this", models.ErrForbidden, actor.Role)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", models.ErrForbidden, reason)
}

func invalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidState, fmt.Sprintf(format, args...))
}

// normalizePage применяет значения по умолчанию и верхнюю границу пагинации
func normalizePage(p models.Page) models.Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)
