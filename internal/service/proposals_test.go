package service_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/service"
	"taskboard/models"
)

func TestCreateProposal_Rules(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	admin := f.user(t, "admin", models.RoleAdmin)
	o := f.openOrder(t, customer)

	_, err := f.svc.CreateProposal(f.ctx, customer, service.ProposalInput{OrderID: o.ID, Price: 10})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.CreateProposal(f.ctx, executor, service.ProposalInput{OrderID: o.ID, Price: 0})
	require.ErrorIs(t, err, models.ErrValidation)

	days := 0
	_, err = f.svc.CreateProposal(f.ctx, executor, service.ProposalInput{OrderID: o.ID, Price: 10, EstimatedDuration: &days})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.CreateProposal(f.ctx, executor, service.ProposalInput{OrderID: 999, Price: 10})
	require.ErrorIs(t, err, models.ErrNotFound)

	p := f.propose(t, executor, o.ID, 10)
	require.Equal(t, models.ProposalPending, p.Status)

	_, err = f.svc.CreateProposal(f.ctx, executor, service.ProposalInput{OrderID: o.ID, Price: 20})
	require.ErrorIs(t, err, models.ErrDuplicateProposal)
	require.True(t, service.IsDuplicateProposal(err))

	adminOrder := f.openOrder(t, admin)
	_, err = f.svc.CreateProposal(f.ctx, admin, service.ProposalInput{OrderID: adminOrder.ID, Price: 10})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	other := f.user(t, "dave", models.RoleExecutor)
	_, err = f.svc.CreateProposal(f.ctx, other, service.ProposalInput{OrderID: o.ID, Price: 10})
	require.ErrorIs(t, err, models.ErrValidation, "closed order does not accept proposals")
}

func TestAcceptProposal(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	e1 := f.user(t, "bob", models.RoleExecutor)
	e2 := f.user(t, "dave", models.RoleExecutor)
	e3 := f.user(t, "erin", models.RoleExecutor)

	o := f.openOrder(t, customer)
	p1 := f.propose(t, e1, o.ID, 100)
	p2 := f.propose(t, e2, o.ID, 200)
	p3 := f.propose(t, e3, o.ID, 300)

	_, err := f.svc.WithdrawProposal(f.ctx, e3, p3.ID)
	require.NoError(t, err)

	_, err = f.svc.AcceptProposal(f.ctx, e2, p1.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	accepted, err := f.svc.AcceptProposal(f.ctx, customer, p1.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalAccepted, accepted.Status)

	order, err := f.store.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderInProgress, order.Status)
	require.Equal(t, e1.ID, *order.AssignedExecutorID)

	got, err := f.store.GetProposal(f.ctx, p2.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalRejected, got.Status)

	got, err = f.store.GetProposal(f.ctx, p3.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalWithdrawn, got.Status, "withdrawn proposals are left alone")

	_, err = f.svc.AcceptProposal(f.ctx, customer, p1.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)
	_, err = f.svc.AcceptProposal(f.ctx, customer, p2.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestAcceptProposal_AdminAllowed(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	admin := f.user(t, "admin", models.RoleAdmin)

	o := f.openOrder(t, customer)
	p := f.propose(t, executor, o.ID, 100)

	_, err := f.svc.AcceptProposal(f.ctx, admin, p.ID)
	require.NoError(t, err)
}

func TestAcceptProposal_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	o := f.openOrder(t, customer)

	const n = 8
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		e := f.user(t, "executor"+string(rune('a'+i)), models.RoleExecutor)
		ids[i] = f.propose(t, e, o.ID, float64(100+i)).ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := f.svc.AcceptProposal(f.ctx, customer, id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, models.ErrInvalidState)
			}
		}(id)
	}
	wg.Wait()

	require.Equal(t, 1, wins)

	accepted := models.ProposalAccepted
	list, err := f.store.ListProposals(f.ctx, models.ProposalFilter{OrderID: &o.ID, Status: &accepted})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRejectAndWithdraw(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	e1 := f.user(t, "bob", models.RoleExecutor)
	e2 := f.user(t, "dave", models.RoleExecutor)

	o := f.openOrder(t, customer)
	p1 := f.propose(t, e1, o.ID, 100)
	p2 := f.propose(t, e2, o.ID, 200)

	rejected, err := f.svc.RejectProposal(f.ctx, customer, p1.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalRejected, rejected.Status)

	order, err := f.store.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderOpen, order.Status, "reject has no order side effects")

	_, err = f.svc.RejectProposal(f.ctx, customer, p1.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)

	_, err = f.svc.WithdrawProposal(f.ctx, e1, p2.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.AcceptProposal(f.ctx, customer, p2.ID)
	require.NoError(t, err)
	_, err = f.svc.WithdrawProposal(f.ctx, e2, p2.ID)
	require.ErrorIs(t, err, models.ErrInvalidState, "accepted proposal cannot be withdrawn")
}

func TestUpdateAndDeleteProposal(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	e1 := f.user(t, "bob", models.RoleExecutor)
	e2 := f.user(t, "dave", models.RoleExecutor)
	o := f.openOrder(t, customer)
	p1 := f.propose(t, e1, o.ID, 100)
	p2 := f.propose(t, e2, o.ID, 100)

	price := 150.0
	updated, err := f.svc.UpdateProposal(f.ctx, e1, p1.ID, service.ProposalUpdate{Price: &price})
	require.NoError(t, err)
	require.Equal(t, price, updated.Price)

	_, err = f.svc.UpdateProposal(f.ctx, e2, p1.ID, service.ProposalUpdate{Price: &price})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.AcceptProposal(f.ctx, customer, p1.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateProposal(f.ctx, e1, p1.ID, service.ProposalUpdate{Price: &price})
	require.ErrorIs(t, err, models.ErrInvalidState)
	require.ErrorIs(t, f.svc.DeleteProposal(f.ctx, e1, p1.ID), models.ErrInvalidState)

	require.NoError(t, f.svc.DeleteProposal(f.ctx, e2, p2.ID), "rejected proposal can be deleted by its author")
}

func TestProposalVisibility(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	otherCustomer := f.user(t, "carol", models.RoleCustomer)
	e1 := f.user(t, "bob", models.RoleExecutor)
	e2 := f.user(t, "dave", models.RoleExecutor)
	admin := f.user(t, "admin", models.RoleAdmin)

	o := f.openOrder(t, customer)
	p := f.propose(t, e1, o.ID, 100)

	_, err := f.svc.GetProposal(f.ctx, e1, p.ID)
	require.NoError(t, err)
	_, err = f.svc.GetProposal(f.ctx, customer, p.ID)
	require.NoError(t, err)
	_, err = f.svc.GetProposal(f.ctx, admin, p.ID)
	require.NoError(t, err)
	_, err = f.svc.GetProposal(f.ctx, e2, p.ID)
	require.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.svc.GetProposal(f.ctx, otherCustomer, p.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.ListOrderProposals(f.ctx, e1, o.ID, models.Page{})
	require.ErrorIs(t, err, models.ErrForbidden)
	list, err := f.svc.ListOrderProposals(f.ctx, customer, o.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	mine, err := f.svc.ListMyProposals(f.ctx, e1, true, models.Page{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.svc.ListAllProposals(f.ctx, e1, models.Page{})
	require.ErrorIs(t, err, models.ErrForbidden)
	all, err := f.svc.ListAllProposals(f.ctx, admin, models.Page{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}
