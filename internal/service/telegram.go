package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"taskboard/models"
)

const (
	bindingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bindingCodeLength   = 8
)

type TelegramStatus struct {
	Linked           bool    `json:"linked"`
	TelegramID       *int64  `json:"telegramId,omitempty"`
	TelegramUsername *string `json:"telegramUsername,omitempty"`
}

// GenerateBindingCode выпускает одноразовый код для привязки Telegram
func (s *Service) GenerateBindingCode(ctx context.Context, actor *models.User) (*models.BindingCode, error) {
	if _, err := s.store.PurgeExpiredBindingCodes(ctx, s.now()); err != nil {
		zap.L().Warn("failed to purge binding codes", zap.Error(err))
	}

	for attempt := 0; attempt < 3; attempt++ {
		code, err := newBindingCode()
		if err != nil {
			return nil, err
		}
		bc := &models.BindingCode{
			Code:      code,
			UserID:    actor.ID,
			ExpiresAt: s.now().Add(s.bindingCodeTTL),
		}
		err = s.store.CreateBindingCode(ctx, bc)
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return bc, nil
	}
	return nil, errors.New("failed to generate unique binding code")
}

// BindTelegram погашает код и привязывает к его владельцу Telegram-аккаунт.
// Бот-аккаунт без email, уже занявший этот telegram_id, удаляется; веб-аккаунт приводит к ошибке.
func (s *Service) BindTelegram(ctx context.Context, code string, telegramID int64, telegramUsername string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	bc, err := s.store.GetBindingCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, invalid("invalid or expired code")
		}
		return nil, err
	}
	if !bc.ExpiresAt.After(s.now()) {
		return nil, invalid("invalid or expired code")
	}

	binding := models.TelegramBinding{
		Code:       bc.Code,
		UserID:     bc.UserID,
		TelegramID: telegramID,
	}
	if telegramUsername != "" {
		binding.TelegramUsername = &telegramUsername
	}

	existing, err := s.store.GetUserByTelegramID(ctx, telegramID)
	switch {
	case err == nil && existing.ID == bc.UserID:
	case err == nil && existing.IsBotOnly():
		binding.ReplaceUserID = existing.ID
	case err == nil:
		return nil, invalid("this Telegram account is already linked to another user")
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	if err := s.store.BindTelegram(ctx, binding); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, invalid("invalid or expired code")
		}
		return nil, err
	}

	zap.L().Info("telegram linked",
		zap.Int64("user_id", bc.UserID),
		zap.Int64("telegram_id", telegramID),
		zap.Int64("replaced_user_id", binding.ReplaceUserID))
	return s.store.GetUser(ctx, bc.UserID)
}

func (s *Service) UnlinkTelegram(ctx context.Context, actor *models.User) error {
	if actor.TelegramID == nil {
		return invalid("telegram account is not linked")
	}
	if actor.IsBotOnly() {
		return invalid("bot-only account cannot be unlinked")
	}
	return s.store.SetTelegram(ctx, actor.ID, nil, nil)
}

func (s *Service) TelegramStatus(actor *models.User) TelegramStatus {
	return TelegramStatus{
		Linked:           actor.TelegramID != nil,
		TelegramID:       actor.TelegramID,
		TelegramUsername: actor.TelegramUsername,
	}
}

// PurgeExpiredBindingCodes удаляет просроченные коды, используется периодической задачей
func (s *Service) PurgeExpiredBindingCodes(ctx context.Context) error {
	n, err := s.store.PurgeExpiredBindingCodes(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		zap.L().Info("expired binding codes purged", zap.Int64("count", n))
	}
	return nil
}

func newBindingCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(bindingCodeAlphabet)))
	for i := 0; i < bindingCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(bindingCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
