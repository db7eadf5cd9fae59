package models

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleExecutor Role = "executor"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleExecutor, RoleAdmin:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderOpen       OrderStatus = "open"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderOpen, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// AllowsMessaging разрешена ли переписка по заказу в этом статусе
func (s OrderStatus) AllowsMessaging() bool {
	return s == OrderInProgress || s == OrderCompleted
}

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalWithdrawn ProposalStatus = "withdrawn"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalPending, ProposalAccepted, ProposalRejected, ProposalWithdrawn:
		return true
	}
	return false
}

// Priority общий для заказов и задач
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority разбирает приоритет без учёта регистра, пустое значение даёт medium
func ParsePriority(s string) (Priority, bool) {
	if strings.TrimSpace(s) == "" {
		return PriorityMedium, true
	}
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}
