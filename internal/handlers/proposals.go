package handlers

import (
	"context"
	"net/http"

	"taskboard/internal/service"
	"taskboard/models"
)

// CreateProposalHandler обрабатывает POST /api/proposals
func (h *Handler) CreateProposalHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in service.ProposalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	proposal, err := h.svc.CreateProposal(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// ListProposalsHandler GET /api/proposals, только для админа
func (h *Handler) ListProposalsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	proposals, err := h.svc.ListAllProposals(r.Context(), actor, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

func (h *Handler) listMyProposals(pendingOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		proposals, err := h.svc.ListMyProposals(r.Context(), actor, pendingOnly, parsePaginationParams(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, proposals)
	}
}

func (h *Handler) ListMyProposalsHandler(w http.ResponseWriter, r *http.Request) {
	h.listMyProposals(false)(w, r)
}

func (h *Handler) ListPendingProposalsHandler(w http.ResponseWriter, r *http.Request) {
	h.listMyProposals(true)(w, r)
}

// ListOrderProposalsHandler GET /api/proposals/order/{orderId}
func (h *Handler) ListOrderProposalsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := urlID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	proposals, err := h.svc.ListOrderProposals(r.Context(), actor, orderID, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

func (h *Handler) GetProposalHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	proposal, err := h.svc.GetProposal(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (h *Handler) UpdateProposalHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.ProposalUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	proposal, err := h.svc.UpdateProposal(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

func (h *Handler) DeleteProposalHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteProposal(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "proposal deleted"})
}

type proposalDecision func(ctx context.Context, actor *models.User, id int64) (*models.Proposal, error)

func (h *Handler) decideProposal(fn proposalDecision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, err := urlID(r, "proposalId")
		if err != nil {
			writeError(w, r, err)
			return
		}

		proposal, err := fn(r.Context(), actor, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, proposal)
	}
}

// AcceptProposalHandler POST /api/proposals/{proposalId}/accept: назначает исполнителя и переводит заказ в работу
func (h *Handler) AcceptProposalHandler(w http.ResponseWriter, r *http.Request) {
	h.decideProposal(h.svc.AcceptProposal)(w, r)
}

func (h *Handler) RejectProposalHandler(w http.ResponseWriter, r *http.Request) {
	h.decideProposal(h.svc.RejectProposal)(w, r)
}

func (h *Handler) WithdrawProposalHandler(w http.ResponseWriter, r *http.Request) {
	h.decideProposal(h.svc.WithdrawProposal)(w, r)
}
