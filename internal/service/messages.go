package service

import (
	"context"
	"strings"

	"taskboard/models"
)

const maxMessageLength = 4000

type MessageInput struct {
	OrderID    int64  `json:"orderId"`
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
}

// SendMessage создаёт сообщение между заказчиком и исполнителем заказа.
// Переписка открыта только для заказов в работе или завершённых.
// Если получатель не указан, им становится второй участник.
func (s *Service) SendMessage(ctx context.Context, actor *models.User, in MessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" || len(content) > maxMessageLength {
		return nil, invalid("content is required and max length %d", maxMessageLength)
	}

	order, err := s.store.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParticipant(actor.ID) {
		return nil, forbidden("only order participants can exchange messages")
	}
	if !order.Status.AllowsMessaging() || order.AssignedExecutorID == nil {
		return nil, invalidState("messaging is available only for orders in progress or completed")
	}

	counterpart := order.CreatorID
	if actor.ID == order.CreatorID {
		counterpart = *order.AssignedExecutorID
	}
	if in.ReceiverID == 0 {
		in.ReceiverID = counterpart
	}
	if in.ReceiverID != counterpart {
		return nil, invalid("receiver must be the other order participant")
	}

	msg := &models.Message{
		OrderID:    order.ID,
		SenderID:   actor.ID,
		ReceiverID: in.ReceiverID,
		Content:    content,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// canReadThread пускает к переписке участников заказа и исполнителя, чей отклик был принят:
// после отмены заказа исполнитель снимается, но его переписка остаётся доступной для чтения.
func (s *Service) canReadThread(ctx context.Context, actor *models.User, order *models.Order) error {
	if order.IsParticipant(actor.ID) {
		return nil
	}
	accepted, err := s.acceptedProposal(ctx, order.ID)
	if err != nil {
		return err
	}
	if accepted != nil && accepted.ExecutorID == actor.ID {
		return nil
	}
	return forbidden("only order participants can read messages")
}

// OrderMessages возвращает переписку по заказу и помечает входящие сообщения прочитанными
func (s *Service) OrderMessages(ctx context.Context, actor *models.User, orderID int64, page models.Page) ([]models.Message, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.canReadThread(ctx, actor, order); err != nil {
		return nil, err
	}

	messages, err := s.store.ListOrderMessages(ctx, orderID, normalizePage(page))
	if err != nil {
		return nil, err
	}
	if _, err := s.store.MarkOrderMessagesRead(ctx, orderID, actor.ID); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor *models.User, orderID *int64) (int, error) {
	if orderID != nil {
		order, err := s.store.GetOrder(ctx, *orderID)
		if err != nil {
			return 0, err
		}
		if err := s.canReadThread(ctx, actor, order); err != nil {
			return 0, err
		}
	}
	return s.store.CountUnread(ctx, actor.ID, orderID)
}

func (s *Service) MarkMessageRead(ctx context.Context, actor *models.User, id int64) error {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.ReceiverID != actor.ID {
		return forbidden("only the receiver can mark a message as read")
	}
	return s.store.MarkMessageRead(ctx, id)
}

func (s *Service) MarkOrderMessagesRead(ctx context.Context, actor *models.User, orderID int64) (int64, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if err := s.canReadThread(ctx, actor, order); err != nil {
		return 0, err
	}
	return s.store.MarkOrderMessagesRead(ctx, orderID, actor.ID)
}

func (s *Service) DeleteMessage(ctx context.Context, actor *models.User, id int64) error {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID != actor.ID {
		return forbidden("only the sender can delete a message")
	}
	return s.store.DeleteMessage(ctx, id)
}
