package models

import (
	"time"

	"github.com/lib/pq"
)

// Сущность Пользователя
type User struct {
	ID               int64     `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            *string   `db:"email" json:"email,omitempty"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	FullName         string    `db:"full_name" json:"fullName"`
	Role             Role      `db:"role" json:"role"`
	Rating           float64   `db:"rating" json:"rating"`
	CompletedTasks   int       `db:"completed_tasks" json:"completedTasks"`
	TelegramID       *int64    `db:"telegram_id" json:"telegramId,omitempty"`
	TelegramUsername *string   `db:"telegram_username" json:"telegramUsername,omitempty"`
	IsActive         bool      `db:"is_active" json:"isActive"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// IsBotOnly сообщает, что аккаунт создан ботом и не имеет веб-учётки
func (u *User) IsBotOnly() bool {
	return u.Email == nil || *u.Email == ""
}

// Сущность Заказа
type Order struct {
	ID                 int64          `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Description        string         `db:"description" json:"description"`
	Budget             float64        `db:"budget" json:"budget"`
	Deadline           time.Time      `db:"deadline" json:"deadline"`
	Priority           Priority       `db:"priority" json:"priority"`
	Status             OrderStatus    `db:"status" json:"status"`
	Tags               pq.StringArray `db:"tags" json:"tags"`
	CreatorID          int64          `db:"creator_id" json:"creatorId"`
	AssignedExecutorID *int64         `db:"assigned_executor_id" json:"assignedExecutorId,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
}

// IsParticipant проверяет, что пользователь является заказчиком или исполнителем заказа
func (o *Order) IsParticipant(userID int64) bool {
	if o.CreatorID == userID {
		return true
	}
	return o.AssignedExecutorID != nil && *o.AssignedExecutorID == userID
}

// OrderDetails заказ вместе с откликами
type OrderDetails struct {
	Order
	Proposals []Proposal `json:"proposals"`
}

// Сущность Отклика
type Proposal struct {
	ID                int64          `db:"id" json:"id"`
	OrderID           int64          `db:"order_id" json:"orderId"`
	ExecutorID        int64          `db:"executor_id" json:"executorId"`
	Description       string         `db:"description" json:"description"`
	Price             float64        `db:"price" json:"price"`
	EstimatedDuration *int           `db:"estimated_duration" json:"estimatedDuration,omitempty"`
	Status            ProposalStatus `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// Сущность Сообщения
type Message struct {
	ID         int64     `db:"id" json:"id"`
	OrderID    int64     `db:"order_id" json:"orderId"`
	SenderID   int64     `db:"sender_id" json:"senderId"`
	ReceiverID int64     `db:"receiver_id" json:"receiverId"`
	Content    string    `db:"content" json:"content"`
	IsRead     bool      `db:"is_read" json:"isRead"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Сущность Доски
type Board struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	IsPublic    bool      `db:"is_public" json:"isPublic"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatorID   int64     `db:"creator_id" json:"creatorId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// BoardDetails доска с колонками и задачами
type BoardDetails struct {
	Board
	Columns []Column `json:"columns"`
	Tasks   []Task   `json:"tasks"`
}

// Сущность Колонки
type Column struct {
	ID        int64     `db:"id" json:"id"`
	BoardID   int64     `db:"board_id" json:"boardId"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Сущность Задачи
type Task struct {
	ID          int64          `db:"id" json:"id"`
	BoardID     int64          `db:"board_id" json:"boardId"`
	ColumnID    *int64         `db:"column_id" json:"columnId,omitempty"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Priority    Priority       `db:"priority" json:"priority"`
	Budget      *float64       `db:"budget" json:"budget,omitempty"`
	DueDate     *time.Time     `db:"due_date" json:"dueDate,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	AssigneeID  *int64         `db:"assignee_id" json:"assigneeId,omitempty"`
	CreatorID   int64          `db:"creator_id" json:"creatorId"`
	ParentID    *int64         `db:"parent_id" json:"parentId,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// Код привязки Telegram-аккаунта
type BindingCode struct {
	Code      string    `db:"code" json:"code"`
	UserID    int64     `db:"user_id" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
