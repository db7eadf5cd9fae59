package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"taskboard/models"
)

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (username, email, password_hash, full_name, role, telegram_id, telegram_username, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, rating, completed_tasks, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.Role, u.TelegramID, u.TelegramUsername, u.IsActive).
		Scan(&u.ID, &u.Rating, &u.CompletedTasks, &u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT * FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *Storage) ListUsers(ctx context.Context, page models.Page) ([]models.User, error) {
	users := []models.User{}
	b := paginate(psql.Select("*").From("users").OrderBy("id"), page)
	if err := s.selectBuilt(ctx, &users, b); err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
        UPDATE users
        SET email = $1, password_hash = $2, full_name = $3, role = $4, is_active = $5, updated_at = NOW()
        WHERE id = $6
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.FullName, u.Role, u.IsActive, u.ID).
		Scan(&u.UpdatedAt)
	return mapErr(err)
}

func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

// SetTelegram записывает или очищает (nil) привязку Telegram у пользователя
func (s *Storage) SetTelegram(ctx context.Context, userID int64, telegramID *int64, telegramUsername *string) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE users SET telegram_id = $1, telegram_username = $2, updated_at = NOW()
        WHERE id = $3`, telegramID, telegramUsername, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res, models.ErrNotFound)
}

func (s *Storage) CreateBindingCode(ctx context.Context, c *models.BindingCode) error {
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO telegram_binding_codes (code, user_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING created_at`, c.Code, c.UserID, c.ExpiresAt).Scan(&c.CreatedAt)
	return mapErr(err)
}

func (s *Storage) GetBindingCode(ctx context.Context, code string) (*models.BindingCode, error) {
	c := &models.BindingCode{}
	err := s.db.GetContext(ctx, c, `SELECT * FROM telegram_binding_codes WHERE code = $1`, code)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// PurgeExpiredBindingCodes удаляет коды, срок которых истёк к моменту now
func (s *Storage) PurgeExpiredBindingCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM telegram_binding_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// BindTelegram атомарно погашает код и привязывает telegram_id к пользователю
func (s *Storage) BindTelegram(ctx context.Context, b models.TelegramBinding) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM telegram_binding_codes WHERE code = $1 AND expires_at > NOW()`, b.Code)
		if err != nil {
			return mapErr(err)
		}
		if err := requireAffected(res, models.ErrNotFound); err != nil {
			return err
		}

		if b.ReplaceUserID != 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND email IS NULL`, b.ReplaceUserID); err != nil {
				return mapErr(err)
			}
		}

		res, err = tx.ExecContext(ctx, `
            UPDATE users SET telegram_id = $1, telegram_username = $2, updated_at = NOW()
            WHERE id = $3`, b.TelegramID, b.TelegramUsername, b.UserID)
		if err != nil {
			return mapErr(err)
		}
		return requireAffected(res, models.ErrNotFound)
	})
}
