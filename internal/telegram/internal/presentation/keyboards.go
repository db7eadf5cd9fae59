package presentation

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	domain "taskboard/models"
)

func OrderListKbd(orders []domain.Order) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	for _, o := range orders {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			{Text: fmt.Sprintf("%s #%d %s", statusEmoji(o.Status), o.ID, truncate(o.Title, 30)), CallbackData: Callback(ActionOrder, o.ID)},
		})
	}
	return keyboard
}

// OrderActionsKbd кнопки управления заказом; только автор видит переходы статуса
func OrderActionsKbd(o *domain.Order, viewer *domain.User) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	if o.CreatorID != viewer.ID {
		return keyboard
	}

	var row []models.InlineKeyboardButton
	switch o.Status {
	case domain.OrderOpen:
		row = append(row,
			models.InlineKeyboardButton{Text: "📨 Отклики", CallbackData: Callback(ActionProposals, o.ID)},
			models.InlineKeyboardButton{Text: "❌ Отменить", CallbackData: Callback(ActionCancel, o.ID)},
		)
	case domain.OrderInProgress:
		row = append(row,
			models.InlineKeyboardButton{Text: "✅ Завершить", CallbackData: Callback(ActionComplete, o.ID)},
			models.InlineKeyboardButton{Text: "❌ Отменить", CallbackData: Callback(ActionCancel, o.ID)},
		)
	case domain.OrderCancelled:
		row = append(row,
			models.InlineKeyboardButton{Text: "🔄 Восстановить", CallbackData: Callback(ActionRestore, o.ID)},
		)
	}
	if len(row) > 0 {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, row)
	}
	return keyboard
}

// ProposalsKbd кнопки принять/отклонить для ожидающих откликов
func ProposalsKbd(proposals []domain.Proposal) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	for _, p := range proposals {
		if p.Status != domain.ProposalPending {
			continue
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			{Text: fmt.Sprintf("✔️ Принять #%d", p.ID), CallbackData: Callback(ActionAccept, p.ID)},
			{Text: fmt.Sprintf("✖️ Отклонить #%d", p.ID), CallbackData: Callback(ActionReject, p.ID)},
		})
	}
	return keyboard
}

// MyProposalsKbd кнопка отзыва для каждого ожидающего отклика
func MyProposalsKbd(proposals []domain.Proposal) *models.InlineKeyboardMarkup {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{},
	}
	for _, p := range proposals {
		if p.Status != domain.ProposalPending {
			continue
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, []models.InlineKeyboardButton{
			{Text: fmt.Sprintf("↩️ Отозвать #%d", p.ID), CallbackData: Callback(ActionWithdraw, p.ID)},
		})
	}
	return keyboard
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
