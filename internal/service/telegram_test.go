package service_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/models"
)

func TestResolveTelegramUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.ResolveTelegramUser(f.ctx, 777, "bobby", "Bob")
	require.NoError(t, err)
	require.Equal(t, "tg_777", u.Username)
	require.Equal(t, models.RoleExecutor, u.Role)
	require.True(t, u.IsBotOnly())
	require.Equal(t, int64(777), *u.TelegramID)

	again, err := f.svc.ResolveTelegramUser(f.ctx, 777, "bobby", "Bob")
	require.NoError(t, err)
	require.Equal(t, u.ID, again.ID)
}

func TestBindingCodeFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", models.RoleCustomer)

	bc, err := f.svc.GenerateBindingCode(f.ctx, alice)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), bc.Code)
	require.Equal(t, f.now.Add(10*time.Minute), bc.ExpiresAt)

	// бот уже создал аккаунт для этого telegram_id
	botUser, err := f.svc.ResolveTelegramUser(f.ctx, 555, "alice_tg", "Alice")
	require.NoError(t, err)

	linked, err := f.svc.BindTelegram(f.ctx, bc.Code, 555, "alice_tg")
	require.NoError(t, err)
	require.Equal(t, alice.ID, linked.ID)
	require.Equal(t, int64(555), *linked.TelegramID)

	_, err = f.store.GetUser(f.ctx, botUser.ID)
	require.ErrorIs(t, err, models.ErrNotFound, "bot-only duplicate is removed")

	_, err = f.svc.BindTelegram(f.ctx, bc.Code, 555, "alice_tg")
	require.ErrorIs(t, err, models.ErrValidation, "code is single use")

	status := f.svc.TelegramStatus(linked)
	require.True(t, status.Linked)

	require.NoError(t, f.svc.UnlinkTelegram(f.ctx, linked))
	alice, err = f.store.GetUser(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Nil(t, alice.TelegramID)
	require.ErrorIs(t, f.svc.UnlinkTelegram(f.ctx, alice), models.ErrValidation)
}

func TestBindTelegram_WebAccountConflict(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", models.RoleCustomer)
	carol := f.user(t, "carol", models.RoleCustomer)

	bc, err := f.svc.GenerateBindingCode(f.ctx, carol)
	require.NoError(t, err)
	_, err = f.svc.BindTelegram(f.ctx, bc.Code, 42, "")
	require.NoError(t, err)

	bc, err = f.svc.GenerateBindingCode(f.ctx, alice)
	require.NoError(t, err)
	_, err = f.svc.BindTelegram(f.ctx, bc.Code, 42, "")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestBindingCodeExpiry(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", models.RoleCustomer)

	bc, err := f.svc.GenerateBindingCode(f.ctx, alice)
	require.NoError(t, err)

	f.now = f.now.Add(11 * time.Minute)
	_, err = f.svc.BindTelegram(f.ctx, bc.Code, 99, "")
	require.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, f.svc.PurgeExpiredBindingCodes(f.ctx))
	_, err = f.store.GetBindingCode(f.ctx, bc.Code)
	require.ErrorIs(t, err, models.ErrNotFound)
}
