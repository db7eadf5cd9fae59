package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskboard/internal/service"
	"taskboard/models"
)

func TestSendMessage_Gate(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	outsider := f.user(t, "mallory", models.RoleExecutor)

	open := f.openOrder(t, customer)
	_, err := f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: open.ID, ReceiverID: executor.ID, Content: "hi"})
	require.ErrorIs(t, err, models.ErrInvalidState, "open order has no chat")

	o := f.inProgressOrder(t, customer, executor)

	_, err = f.svc.SendMessage(f.ctx, outsider, service.MessageInput{OrderID: o.ID, ReceiverID: customer.ID, Content: "hi"})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, ReceiverID: outsider.ID, Content: "hi"})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "   "})
	require.ErrorIs(t, err, models.ErrValidation)

	msg, err := f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "How is it going?"})
	require.NoError(t, err)
	require.Equal(t, executor.ID, msg.ReceiverID, "receiver defaults to the other participant")
	require.False(t, msg.IsRead)

	reply, err := f.svc.SendMessage(f.ctx, executor, service.MessageInput{OrderID: o.ID, ReceiverID: customer.ID, Content: "Almost done"})
	require.NoError(t, err)
	require.Equal(t, customer.ID, reply.ReceiverID)

	_, err = f.svc.CompleteOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "Thanks!"})
	require.NoError(t, err, "completed order keeps its chat")
}

func TestSendMessage_CancelledOrderClosed(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	o := f.inProgressOrder(t, customer, executor)

	_, err := f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "hello?"})
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCancelledOrder_FormerExecutorKeepsThread(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	outsider := f.user(t, "mallory", models.RoleExecutor)
	o := f.inProgressOrder(t, customer, executor)

	_, err := f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "draft attached"})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelOrder(f.ctx, customer, o.ID)
	require.NoError(t, err)
	require.Nil(t, cancelled.AssignedExecutorID)

	msgs, err := f.svc.OrderMessages(f.ctx, executor, o.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	count, err := f.svc.UnreadCount(f.ctx, executor, &o.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = f.svc.SendMessage(f.ctx, executor, service.MessageInput{OrderID: o.ID, Content: "ok"})
	require.ErrorIs(t, err, models.ErrForbidden, "reading only, no new messages")

	_, err = f.svc.OrderMessages(f.ctx, outsider, o.ID, models.Page{})
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestReadingMessages(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	outsider := f.user(t, "mallory", models.RoleExecutor)
	o := f.inProgressOrder(t, customer, executor)

	m1, err := f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "one"})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "two"})
	require.NoError(t, err)

	count, err := f.svc.UnreadCount(f.ctx, executor, nil)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = f.svc.UnreadCount(f.ctx, executor, &o.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, err = f.svc.UnreadCount(f.ctx, outsider, &o.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	require.ErrorIs(t, f.svc.MarkMessageRead(f.ctx, customer, m1.ID), models.ErrForbidden, "sender cannot mark as read")
	require.NoError(t, f.svc.MarkMessageRead(f.ctx, executor, m1.ID))

	count, err = f.svc.UnreadCount(f.ctx, executor, nil)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = f.svc.OrderMessages(f.ctx, outsider, o.ID, models.Page{})
	require.ErrorIs(t, err, models.ErrForbidden)

	msgs, err := f.svc.OrderMessages(f.ctx, executor, o.ID, models.Page{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "one", msgs[0].Content)

	count, err = f.svc.UnreadCount(f.ctx, executor, nil)
	require.NoError(t, err)
	require.Zero(t, count, "reading the thread marks it read")

	_, err = f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "three"})
	require.NoError(t, err)
	n, err := f.svc.MarkOrderMessagesRead(f.ctx, executor, o.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, "alice", models.RoleCustomer)
	executor := f.user(t, "bob", models.RoleExecutor)
	o := f.inProgressOrder(t, customer, executor)

	msg, err := f.svc.SendMessage(f.ctx, customer, service.MessageInput{OrderID: o.ID, Content: "oops"})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.DeleteMessage(f.ctx, executor, msg.ID), models.ErrForbidden)
	require.NoError(t, f.svc.DeleteMessage(f.ctx, customer, msg.ID))
	require.ErrorIs(t, f.svc.DeleteMessage(f.ctx, customer, msg.ID), models.ErrNotFound)
}
