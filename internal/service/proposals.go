package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"taskboard/models"
)

type ProposalInput struct {
	OrderID           int64   `json:"orderId"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	EstimatedDuration *int    `json:"estimatedDuration"`
}

type ProposalUpdate struct {
	Description       *string  `json:"description"`
	Price             *float64 `json:"price"`
	EstimatedDuration *int     `json:"estimatedDuration"`
}

func (s *Service) CreateProposal(ctx context.Context, actor *models.User, in ProposalInput) (*models.Proposal, error) {
	if err := requireRole(actor, models.RoleExecutor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, invalid("price must be positive")
	}
	if in.EstimatedDuration != nil && *in.EstimatedDuration <= 0 {
		return nil, invalid("estimated duration must be positive")
	}

	order, err := s.store.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderOpen {
		return nil, invalid("order is not open for proposals")
	}
	if order.CreatorID == actor.ID {
		return nil, invalid("cannot propose on your own order")
	}

	proposal := &models.Proposal{
		OrderID:           order.ID,
		ExecutorID:        actor.ID,
		Description:       in.Description,
		Price:             in.Price,
		EstimatedDuration: in.EstimatedDuration,
		Status:            models.ProposalPending,
	}
	if err := s.store.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	zap.L().Info("proposal created",
		zap.Int64("proposal_id", proposal.ID),
		zap.Int64("order_id", order.ID),
		zap.Int64("executor_id", actor.ID))
	return proposal, nil
}

// GetProposal: исполнитель видит свои отклики, заказчик отклики на свои заказы, админ все
func (s *Service) GetProposal(ctx context.Context, actor *models.User, id int64) (*models.Proposal, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return proposal, nil
	case models.RoleExecutor:
		if proposal.ExecutorID != actor.ID {
			return nil, forbidden("not enough permissions")
		}
	case models.RoleCustomer:
		order, err := s.store.GetOrder(ctx, proposal.OrderID)
		if err != nil {
			return nil, err
		}
		if order.CreatorID != actor.ID {
			return nil, forbidden("not enough permissions")
		}
	}
	return proposal, nil
}

func (s *Service) ListAllProposals(ctx context.Context, actor *models.User, page models.Page) ([]models.Proposal, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListProposals(ctx, models.ProposalFilter{Page: normalizePage(page)})
}

// ListMyProposals отклики автора, при pendingOnly только ожидающие решения
func (s *Service) ListMyProposals(ctx context.Context, actor *models.User, pendingOnly bool, page models.Page) ([]models.Proposal, error) {
	f := models.ProposalFilter{ExecutorID: &actor.ID, Page: normalizePage(page)}
	if pendingOnly {
		pending := models.ProposalPending
		f.Status = &pending
	}
	return s.store.ListProposals(ctx, f)
}

func (s *Service) ListOrderProposals(ctx context.Context, actor *models.User, orderID int64, page models.Page) ([]models.Proposal, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CreatorID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, forbidden("only the order creator can view its proposals")
	}
	return s.store.ListProposals(ctx, models.ProposalFilter{OrderID: &orderID, Page: normalizePage(page)})
}

// ownProposal загружает отклик и проверяет, что actor его автор
func (s *Service) ownProposal(ctx context.Context, actor *models.User, id int64) (*models.Proposal, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.ExecutorID != actor.ID {
		return nil, forbidden("only the proposal author can do this")
	}
	return proposal, nil
}

func (s *Service) UpdateProposal(ctx context.Context, actor *models.User, id int64, in ProposalUpdate) (*models.Proposal, error) {
	proposal, err := s.ownProposal(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalPending {
		return nil, invalidState("only pending proposals can be edited")
	}

	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, invalid("price must be positive")
		}
		proposal.Price = *in.Price
	}
	if in.Description != nil {
		proposal.Description = *in.Description
	}
	if in.EstimatedDuration != nil {
		if *in.EstimatedDuration <= 0 {
			return nil, invalid("estimated duration must be positive")
		}
		proposal.EstimatedDuration = in.EstimatedDuration
	}

	if err := s.store.UpdateProposal(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (s *Service) DeleteProposal(ctx context.Context, actor *models.User, id int64) error {
	proposal, err := s.ownProposal(ctx, actor, id)
	if err != nil {
		return err
	}
	if proposal.Status == models.ProposalAccepted {
		return invalidState("accepted proposal cannot be deleted")
	}
	return s.store.DeleteProposal(ctx, id)
}

// decidableProposal загружает отклик и проверяет, что actor автор заказа или админ
func (s *Service) decidableProposal(ctx context.Context, actor *models.User, id int64) (*models.Proposal, *models.Order, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.store.GetOrder(ctx, proposal.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.CreatorID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, nil, forbidden("only the order creator can decide on proposals")
	}
	if proposal.Status != models.ProposalPending {
		return nil, nil, invalidState("proposal is already %s", proposal.Status)
	}
	return proposal, order, nil
}

// AcceptProposal принимает отклик: заказ уходит в работу, остальные ожидающие отклики отклоняются
func (s *Service) AcceptProposal(ctx context.Context, actor *models.User, id int64) (*models.Proposal, error) {
	_, order, err := s.decidableProposal(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderOpen {
		return nil, invalidState("order is not open")
	}
	// восстановленный заказ сохраняет принятый до отмены отклик, второй принять нельзя
	accepted, err := s.acceptedProposal(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if accepted != nil {
		return nil, invalidState("order already has an accepted proposal #%d", accepted.ID)
	}

	proposal, order, err := s.store.AcceptProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	zap.L().Info("proposal accepted",
		zap.Int64("proposal_id", proposal.ID),
		zap.Int64("order_id", order.ID),
		zap.Int64("executor_id", proposal.ExecutorID))
	return proposal, nil
}

// acceptedProposal возвращает принятый отклик заказа или nil
func (s *Service) acceptedProposal(ctx context.Context, orderID int64) (*models.Proposal, error) {
	status := models.ProposalAccepted
	found, err := s.store.ListProposals(ctx, models.ProposalFilter{
		OrderID: &orderID,
		Status:  &status,
		Page:    models.Page{Limit: 1},
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (s *Service) RejectProposal(ctx context.Context, actor *models.User, id int64) (*models.Proposal, error) {
	if _, _, err := s.decidableProposal(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.SetProposalStatus(ctx, id, models.ProposalRejected)
}

func (s *Service) WithdrawProposal(ctx context.Context, actor *models.User, id int64) (*models.Proposal, error) {
	proposal, err := s.ownProposal(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status == models.ProposalAccepted {
		return nil, invalidState("accepted proposal cannot be withdrawn")
	}
	if proposal.Status != models.ProposalPending {
		return nil, invalidState("proposal is already %s", proposal.Status)
	}
	return s.store.SetProposalStatus(ctx, id, models.ProposalWithdrawn)
}

// IsDuplicateProposal сообщает, что исполнитель уже откликался на этот заказ
func IsDuplicateProposal(err error) bool {
	return errors.Is(err, models.ErrDuplicateProposal)
}
