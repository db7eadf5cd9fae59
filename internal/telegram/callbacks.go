package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"taskboard/internal/telegram/internal/presentation"
	domain "taskboard/models"
)

// handleCallback обрабатывает нажатия inline-кнопок вида "<action>:<id>"
func (b *Bot) handleCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})

	chat := chatID(update)
	action, id, err := presentation.ParseCallback(query.Data)
	if err != nil {
		b.reply(ctx, chat, presentation.GenericErrorMsg(), nil)
		return
	}

	user := userFromContext(ctx)
	switch action {
	case presentation.ActionOrder:
		b.showOrder(ctx, update, user, id)

	case presentation.ActionProposals:
		proposals, err := b.svc.ListOrderProposals(ctx, user, id, domain.Page{Limit: botPageLimit})
		if err != nil {
			b.replyError(ctx, chat, err)
			return
		}
		b.reply(ctx, chat, presentation.ProposalListMsg("📨 Отклики на заказ", proposals), presentation.ProposalsKbd(proposals))

	case presentation.ActionAccept, presentation.ActionReject, presentation.ActionWithdraw:
		decide := map[presentation.Action]func(context.Context, *domain.User, int64) (*domain.Proposal, error){
			presentation.ActionAccept:   b.svc.AcceptProposal,
			presentation.ActionReject:   b.svc.RejectProposal,
			presentation.ActionWithdraw: b.svc.WithdrawProposal,
		}[action]
		proposal, err := decide(ctx, user, id)
		if err != nil {
			b.replyError(ctx, chat, err)
			return
		}
		b.reply(ctx, chat, presentation.ProposalDecisionMsg(proposal), nil)

	case presentation.ActionComplete, presentation.ActionCancel, presentation.ActionRestore:
		transition := map[presentation.Action]func(context.Context, *domain.User, int64) (*domain.Order, error){
			presentation.ActionComplete: b.svc.CompleteOrder,
			presentation.ActionCancel:   b.svc.CancelOrder,
			presentation.ActionRestore:  b.svc.RestoreOrder,
		}[action]
		if _, err := transition(ctx, user, id); err != nil {
			b.replyError(ctx, chat, err)
			return
		}
		b.showOrder(ctx, update, user, id)

	default:
		b.reply(ctx, chat, presentation.GenericErrorMsg(), nil)
	}
}

// showOrder перерисовывает сообщение с кнопкой, если оно доступно, иначе отправляет новое
func (b *Bot) showOrder(ctx context.Context, update *models.Update, user *domain.User, orderID int64) {
	chat := chatID(update)
	details, err := b.svc.GetOrder(ctx, user, orderID)
	if err != nil {
		b.replyError(ctx, chat, err)
		return
	}

	text := presentation.OrderDetailsMsg(&details.Order, len(details.Proposals))
	kbd := presentation.OrderActionsKbd(&details.Order, user)

	if msg := update.CallbackQuery.Message.Message; msg != nil {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chat,
			MessageID:   msg.ID,
			Text:        text,
			ReplyMarkup: kbd,
		})
		return
	}
	b.reply(ctx, chat, text, kbd)
}
