// Package telegram реализует второй фронтенд биржи: Telegram-бота поверх того же сервисного слоя, что и REST API.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"taskboard/internal/service"
	"taskboard/internal/telegram/internal/presentation"
	domain "taskboard/models"
)

// api часть *bot.Bot, которой пользуются обработчики
type api interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type userKey struct{}

type Bot struct {
	svc    *service.Service
	api    api
	client *bot.Bot
}

func NewBot(svc *service.Service, token string) (*Bot, error) {
	b := &Bot{svc: svc}

	client, err := bot.New(token,
		bot.WithMiddlewares(b.recoverMiddleware, b.userMiddleware),
		bot.WithDefaultHandler(b.handleDefault),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot instance: %w", err)
	}
	b.client = client
	b.api = client

	b.registerHandlers()
	return b, nil
}

func (b *Bot) registerHandlers() {
	commands := map[string]bot.HandlerFunc{
		"start":     b.handleStartCmd,
		"link":      b.handleLinkCmd,
		"help":      b.handleHelpCmd,
		"profile":   b.handleProfileCmd,
		"orders":    b.handleOrdersCmd,
		"available": b.handleAvailableCmd,
		"proposals": b.handleProposalsCmd,
		"propose":   b.handleProposeCmd,
		"chat":      b.handleChatCmd,
		"send":      b.handleSendCmd,
	}
	for name, h := range commands {
		b.client.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeCommandStartOnly, h)
	}

	for _, action := range []presentation.Action{
		presentation.ActionOrder,
		presentation.ActionProposals,
		presentation.ActionAccept,
		presentation.ActionReject,
		presentation.ActionWithdraw,
		presentation.ActionComplete,
		presentation.ActionCancel,
		presentation.ActionRestore,
	} {
		b.client.RegisterHandler(bot.HandlerTypeCallbackQueryData, action.Prefix(), bot.MatchTypePrefix, b.handleCallback)
	}
}

// Start блокируется до отмены ctx
func (b *Bot) Start(ctx context.Context) {
	zap.L().Info("starting telegram bot")
	b.client.Start(ctx)
	zap.L().Info("telegram bot stopped")
}

func (b *Bot) SendMessage(ctx context.Context, params *bot.SendMessageParams) int {
	if params.ParseMode == "" {
		params.ParseMode = models.ParseModeHTML
	}
	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		zap.L().Error("error sending message", zap.Error(err), zap.Any("chat_id", params.ChatID))
		return 0
	}
	return msg.ID
}

func (b *Bot) EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) {
	if params.ParseMode == "" {
		params.ParseMode = models.ParseModeHTML
	}
	if _, err := b.api.EditMessageText(ctx, params); err != nil {
		zap.L().Error("error editing message", zap.Error(err))
	}
}

func (b *Bot) AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) {
	if _, err := b.api.AnswerCallbackQuery(ctx, params); err != nil {
		zap.L().Error("error answering callback", zap.Error(err))
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	b.SendMessage(ctx, params)
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	if presentation.ErrorMsg(err) == presentation.GenericErrorMsg() {
		zap.L().Error("bot update failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.reply(ctx, chatID, presentation.ErrorMsg(err), nil)
}

func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey{}).(*domain.User)
	return u
}

func sender(update *models.Update) *models.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	default:
		return nil
	}
}

func chatID(update *models.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	default:
		return 0
	}
}

// userMiddleware находит или создаёт пользователя по telegram id и кладёт его в контекст
func (b *Bot) userMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, api *bot.Bot, update *models.Update) {
		from := sender(update)
		if from == nil {
			return
		}

		fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
		user, err := b.svc.ResolveTelegramUser(ctx, from.ID, from.Username, fullName)
		if err != nil {
			b.replyError(ctx, chatID(update), err)
			return
		}
		if !user.IsActive {
			b.reply(ctx, chatID(update), presentation.BlockedUserMsg(), nil)
			return
		}

		next(context.WithValue(ctx, userKey{}, user), api, update)
	}
}

// recoverMiddleware не даёт панике в обработчике остановить цикл обновлений
func (b *Bot) recoverMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, api *bot.Bot, update *models.Update) {
		defer func() {
			if p := recover(); p != nil {
				zap.L().Error("panic in bot handler", zap.Any("panic", p), zap.Int64("update_id", update.ID))
				if id := chatID(update); id != 0 {
					b.reply(ctx, id, presentation.GenericErrorMsg(), nil)
				}
			}
		}()
		next(ctx, api, update)
	}
}

func (b *Bot) handleDefault(ctx context.Context, api *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, update.Message.Chat.ID, presentation.HelpMsg(), nil)
}
