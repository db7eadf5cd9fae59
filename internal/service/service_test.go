package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/service"
	"taskboard/internal/storetest"
	"taskboard/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubTokens struct{}

func (stubTokens) Generate(userID int64) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

type fixture struct {
	ctx   context.Context
	store *storetest.MemStore
	svc   *service.Service
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: storetest.New(), now: testNow}
	f.svc = service.New(f.store, stubTokens{}, service.Options{
		BindingCodeTTL: 10 * time.Minute,
		Now:            func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	email := name + "@example.com"
	u := &models.User{Username: name, Email: &email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) openOrder(t *testing.T, creator *models.User) *models.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(f.ctx, creator, service.OrderInput{
		Title:    "Landing page",
		Budget:   500,
		Deadline: f.now.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) propose(t *testing.T, executor *models.User, orderID int64, price float64) *models.Proposal {
	t.Helper()
	p, err := f.svc.CreateProposal(f.ctx, executor, service.ProposalInput{OrderID: orderID, Price: price})
	require.NoError(t, err)
	return p
}

// inProgressOrder создаёт заказ, отклик и принимает его
func (f *fixture) inProgressOrder(t *testing.T, customer, executor *models.User) *models.Order {
	t.Helper()
	o := f.openOrder(t, customer)
	p := f.propose(t, executor, o.ID, 450)
	_, err := f.svc.AcceptProposal(f.ctx, customer, p.ID)
	require.NoError(t, err)
	o, err = f.store.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	return o
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Register(f.ctx, service.RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "password1", Role: models.RoleCustomer,
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleCustomer, u.Role)
	require.NotEqual(t, "password1", u.PasswordHash)

	_, err = f.svc.Register(f.ctx, service.RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "password1",
	})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.Register(f.ctx, service.RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "short",
	})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.Register(f.ctx, service.RegisterInput{
		Username: "root", Email: "root@example.com", Password: "password1", Role: models.RoleAdmin,
	})
	require.ErrorIs(t, err, models.ErrValidation)

	res, err := f.svc.Login(f.ctx, "alice", "password1")
	require.NoError(t, err)
	require.Equal(t, "bearer", res.TokenType)
	require.Equal(t, fmt.Sprintf("token-%d", u.ID), res.AccessToken)

	_, err = f.svc.Login(f.ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.svc.Login(f.ctx, "nobody", "password1")
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUserManagement(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", models.RoleAdmin)
	alice := f.user(t, "alice", models.RoleCustomer)
	bob := f.user(t, "bob", models.RoleExecutor)

	_, err := f.svc.ListUsers(f.ctx, alice, models.Page{})
	require.ErrorIs(t, err, models.ErrForbidden)
	users, err := f.svc.ListUsers(f.ctx, admin, models.Page{})
	require.NoError(t, err)
	require.Len(t, users, 3)

	name := "Alice A."
	updated, err := f.svc.UpdateUser(f.ctx, alice, alice.ID, service.UserUpdate{FullName: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.FullName)

	_, err = f.svc.UpdateUser(f.ctx, alice, bob.ID, service.UserUpdate{FullName: &name})
	require.ErrorIs(t, err, models.ErrForbidden)

	role := models.RoleAdmin
	_, err = f.svc.UpdateUser(f.ctx, alice, alice.ID, service.UserUpdate{Role: &role})
	require.ErrorIs(t, err, models.ErrForbidden)

	require.ErrorIs(t, f.svc.DeleteUser(f.ctx, admin, admin.ID), models.ErrValidation)
	require.ErrorIs(t, f.svc.DeleteUser(f.ctx, alice, bob.ID), models.ErrForbidden)
	require.NoError(t, f.svc.DeleteUser(f.ctx, admin, bob.ID))
	_, err = f.store.GetUser(f.ctx, bob.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)

	valid := service.OrderInput{Title: "Logo", Budget: 100, Deadline: f.now.Add(time.Hour)}

	_, err := f.svc.CreateOrder(f.ctx, executor, valid)
	require.ErrorIs(t, err, models.ErrForbidden)

	zeroBudget := valid
	zeroBudget.Budget = 0
	_, err = f.svc.CreateOrder(f.ctx, customer, zeroBudget)
	require.ErrorIs(t, err, models.ErrValidation)

	past := valid
	past.Deadline = f.now.Add(-time.Minute)
	_, err = f.svc.CreateOrder(f.ctx, customer, past)
	require.ErrorIs(t, err, models.ErrValidation)

	badPriority := valid
	badPriority.Priority = "asap"
	_, err = f.svc.CreateOrder(f.ctx, customer, badPriority)
	require.ErrorIs(t, err, models.ErrValidation)

	o, err := f.svc.CreateOrder(f.ctx, customer, valid)
	require.NoError(t, err)
	require.Equal(t, models.OrderOpen, o.Status)
	require.Equal(t, models.PriorityMedium, o.Priority)
	require.Equal(t, customer.ID, o.CreatorID)
	require.Nil(t, o.AssignedExecutorID)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	stranger := f.user(t, "carol", models.RoleCustomer)

	o := f.openOrder(t, customer)

	_, err := f.svc.CompleteOrder(f.ctx, customer, o.ID)
	require.ErrorIs(t, err, models.ErrInvalidState, "open order cannot be completed")

	_, err = f.svc.RestoreOrder(f.ctx, customer, o.ID)
	require.ErrorIs(t, err, models.ErrInvalidState, "open order cannot be restored")

	_, err = f.svc.CancelOrder(f.ctx, stranger, o.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	cancelled, err := f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderCancelled, cancelled.Status)

	_, err = f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)

	restored, err := f.svc.RestoreOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderOpen, restored.Status)
	require.Nil(t, restored.AssignedExecutorID)

	p := f.propose(t, executor, o.ID, 400)
	_, err = f.svc.AcceptProposal(f.ctx, customer, p.ID)
	require.NoError(t, err)

	completed, err := f.svc.CompleteOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.Equal(t, executor.ID, *completed.AssignedExecutorID)

	_, err = f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.ErrorIs(t, err, models.ErrInvalidState, "completed order is terminal")

	bob, err := f.store.GetUser(f.ctx, executor.ID)
	require.NoError(t, err)
	require.Equal(t, 1, bob.CompletedTasks)
}

func TestCancelInProgressOrder_ClearsExecutor(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)

	o := f.inProgressOrder(t, customer, executor)
	require.NotNil(t, o.AssignedExecutorID)

	cancelled, err := f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderCancelled, cancelled.Status)
	require.Nil(t, cancelled.AssignedExecutorID)

	restored, err := f.svc.RestoreOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderOpen, restored.Status)
	require.Nil(t, restored.AssignedExecutorID)
}

func TestCancelKeepsAcceptedProposal(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	e1 := f.user(t, "bob", models.RoleExecutor)
	e2 := f.user(t, "dave", models.RoleExecutor)

	o := f.openOrder(t, customer)
	accepted := f.propose(t, e1, o.ID, 100)
	_, err := f.svc.AcceptProposal(f.ctx, customer, accepted.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)

	p, err := f.store.GetProposal(f.ctx, accepted.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalAccepted, p.Status, "accepted is terminal")

	_, err = f.svc.RestoreOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)

	late := f.propose(t, e2, o.ID, 90)
	_, err = f.svc.AcceptProposal(f.ctx, customer, late.ID)
	require.ErrorIs(t, err, models.ErrInvalidState, "an order accepts at most one proposal ever")

	p, err = f.store.GetProposal(f.ctx, late.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalPending, p.Status)
}

func TestCancelRejectsPendingProposals(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	e1 := f.user(t, "bob", models.RoleExecutor)
	e2 := f.user(t, "dave", models.RoleExecutor)

	o := f.openOrder(t, customer)
	p1 := f.propose(t, e1, o.ID, 100)
	p2 := f.propose(t, e2, o.ID, 200)

	_, err := f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)

	for _, id := range []int64{p1.ID, p2.ID} {
		p, err := f.store.GetProposal(f.ctx, id)
		require.NoError(t, err)
		require.Equal(t, models.ProposalRejected, p.Status)
	}
}

func TestUpdateOrder(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	other := f.user(t, "carol", models.RoleCustomer)
	o := f.openOrder(t, customer)

	title := "New title"
	budget := 900.0
	updated, err := f.svc.UpdateOrder(f.ctx, customer, o.ID, service.OrderUpdate{Title: &title, Budget: &budget, Tags: []string{"go", " go ", "api"}})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, budget, updated.Budget)
	require.Equal(t, []string{"go", "api"}, []string(updated.Tags))
	require.Equal(t, models.OrderOpen, updated.Status)

	_, err = f.svc.UpdateOrder(f.ctx, other, o.ID, service.OrderUpdate{Title: &title})
	require.ErrorIs(t, err, models.ErrForbidden)

	past := f.now.Add(-time.Hour)
	_, err = f.svc.UpdateOrder(f.ctx, customer, o.ID, service.OrderUpdate{Deadline: &past})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestGetAndListOrders(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	otherCustomer := f.user(t, "carol", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	admin := f.user(t, "admin", models.RoleAdmin)

	open := f.openOrder(t, customer)
	taken := f.inProgressOrder(t, customer, executor)

	details, err := f.svc.GetOrder(f.ctx, customer, taken.ID)
	require.NoError(t, err)
	require.Len(t, details.Proposals, 1)

	_, err = f.svc.GetOrder(f.ctx, otherCustomer, open.ID)
	require.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.svc.GetOrder(f.ctx, executor, open.ID)
	require.NoError(t, err)

	openOrders, err := f.svc.ListOrders(f.ctx, executor, service.ScopeOpen, nil, models.Page{})
	require.NoError(t, err)
	require.Len(t, openOrders, 1)
	require.Equal(t, open.ID, openOrders[0].ID)

	_, err = f.svc.ListOrders(f.ctx, customer, service.ScopeAll, nil, models.Page{})
	require.ErrorIs(t, err, models.ErrForbidden)

	mine, err := f.svc.ListOrders(f.ctx, customer, service.ScopeMine, nil, models.Page{})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	assigned, err := f.svc.ListOrders(f.ctx, executor, service.ScopeMine, nil, models.Page{})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Equal(t, taken.ID, assigned[0].ID)

	status := models.OrderInProgress
	all, err := f.svc.ListOrders(f.ctx, admin, service.ScopeAll, &status, models.Page{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	bad := models.OrderStatus("done")
	_, err = f.svc.ListOrders(f.ctx, admin, service.ScopeAll, &bad, models.Page{})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	o := f.openOrder(t, customer)
	p := f.propose(t, executor, o.ID, 100)

	require.ErrorIs(t, f.svc.DeleteOrder(f.ctx, executor, o.ID), models.ErrForbidden)
	require.NoError(t, f.svc.DeleteOrder(f.ctx, customer, o.ID))

	_, err := f.store.GetProposal(f.ctx, p.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}
