package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"taskboard/models"
)

func (s *Storage) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
        INSERT INTO messages (order_id, sender_id, receiver_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, is_read, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, m.OrderID, m.SenderID, m.ReceiverID, m.Content).
		Scan(&m.ID, &m.IsRead, &m.CreatedAt, &m.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	m := &models.Message{}
	if err := s.db.GetContext(ctx, m, `SELECT * FROM messages WHERE id = $1`, id); err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

// ListOrderMessages возвращает переписку по заказу в хронологическом порядке
func (s *Storage) ListOrderMessages(ctx context.Context, orderID int64, page models.Page) ([]models.Message, error) {
	b := psql.Select("*").From("messages").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at", "id")

	messages := []models.Message{}
	if err := s.selectBuilt(ctx, &messages, paginate(b, page)); err != nil {
		return nil, mapErr(err)
	}
	return messages, nil
}

func (s *Storage) MarkMessageRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// MarkOrderMessagesRead помечает прочитанными все сообщения заказа, адресованные receiverID
func (s *Storage) MarkOrderMessagesRead(ctx context.Context, orderID, receiverID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE messages SET is_read = TRUE, updated_at = NOW()
        WHERE order_id = $1 AND receiver_id = $2 AND NOT is_read`, orderID, receiverID)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// CountUnread считает непрочитанные сообщения получателя, при orderID != nil только по одному заказу
func (s *Storage) CountUnread(ctx context.Context, receiverID int64, orderID *int64) (int, error) {
	b := psql.Select("COUNT(*)").From("messages").
		Where(sq.Eq{"receiver_id": receiverID, "is_read": false})
	if orderID != nil {
		b = b.Where(sq.Eq{"order_id": *orderID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (s *Storage) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}
