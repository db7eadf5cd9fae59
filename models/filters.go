package models

// Page параметры пагинации списков
type Page struct {
	Limit  int
	Offset int
}

type OrderFilter struct {
	Status     *OrderStatus
	CreatorID  *int64
	ExecutorID *int64
	Page
}

type ProposalFilter struct {
	OrderID    *int64
	ExecutorID *int64
	Status     *ProposalStatus
	Page
}

type BoardFilter struct {
	CreatorID  *int64
	PublicOnly bool
	Page
}

type TaskFilter struct {
	BoardID    *int64
	ColumnID   *int64
	CreatorID  *int64
	AssigneeID *int64
	Page
}

// ColumnPosition новая позиция колонки при переупорядочивании
type ColumnPosition struct {
	ID       int64 `json:"id"`
	Position int   `json:"position"`
}

// TelegramBinding описывает привязку Telegram-аккаунта по коду.
// ReplaceUserID не ноль, если перед привязкой нужно удалить бот-аккаунт с тем же telegram_id.
type TelegramBinding struct {
	Code             string
	UserID           int64
	TelegramID       int64
	TelegramUsername *string
	ReplaceUserID    int64
}
