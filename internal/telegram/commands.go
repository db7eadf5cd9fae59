package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"taskboard/internal/service"
	"taskboard/internal/telegram/internal/presentation"
	domain "taskboard/models"
)

const botPageLimit = 10

// commandArgs возвращает текст после команды: "/propose 5 100" -> "5 100"
func commandArgs(text string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(args)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func (b *Bot) handleStartCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if code := commandArgs(update.Message.Text); code != "" {
		b.bind(ctx, update, code)
		return
	}
	b.reply(ctx, update.Message.Chat.ID, presentation.WelcomeMsg(userFromContext(ctx)), nil)
}

func (b *Bot) handleLinkCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	code := commandArgs(update.Message.Text)
	if code == "" {
		b.reply(ctx, update.Message.Chat.ID, presentation.LinkUsageMsg(), nil)
		return
	}
	b.bind(ctx, update, code)
}

func (b *Bot) bind(ctx context.Context, update *models.Update, code string) {
	from := update.Message.From
	user, err := b.svc.BindTelegram(ctx, code, from.ID, from.Username)
	if err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}
	b.reply(ctx, update.Message.Chat.ID, presentation.LinkedMsg(user), nil)
}

func (b *Bot) handleHelpCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.reply(ctx, update.Message.Chat.ID, presentation.HelpMsg(), nil)
}

func (b *Bot) handleProfileCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.reply(ctx, update.Message.Chat.ID, presentation.ProfileMsg(userFromContext(ctx)), nil)
}

func (b *Bot) handleOrdersCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.listOrders(ctx, update, service.ScopeMine, "📦 Мои заказы")
}

func (b *Bot) handleAvailableCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	b.listOrders(ctx, update, service.ScopeOpen, "🔍 Доступные заказы")
}

func (b *Bot) listOrders(ctx context.Context, update *models.Update, scope service.OrderScope, title string) {
	chat := update.Message.Chat.ID
	orders, err := b.svc.ListOrders(ctx, userFromContext(ctx), scope, nil, domain.Page{Limit: botPageLimit})
	if err != nil {
		b.replyError(ctx, chat, err)
		return
	}
	b.reply(ctx, chat, presentation.OrderListMsg(title, orders), presentation.OrderListKbd(orders))
}

func (b *Bot) handleProposalsCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chat := update.Message.Chat.ID
	proposals, err := b.svc.ListMyProposals(ctx, userFromContext(ctx), false, domain.Page{Limit: botPageLimit})
	if err != nil {
		b.replyError(ctx, chat, err)
		return
	}
	b.reply(ctx, chat, presentation.ProposalListMsg("📨 Мои отклики", proposals), presentation.MyProposalsKbd(proposals))
}

const proposeUsage = "/propose <id заказа> <цена> [дней] [текст]"

// handleProposeCmd: /propose <order_id> <price> [days] [text]
func (b *Bot) handleProposeCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chat := update.Message.Chat.ID
	fields := strings.Fields(commandArgs(update.Message.Text))
	if len(fields) < 2 {
		b.reply(ctx, chat, presentation.UsageMsg(proposeUsage), nil)
		return
	}

	orderID, ok := parseID(fields[0])
	if !ok {
		b.reply(ctx, chat, presentation.UsageMsg(proposeUsage), nil)
		return
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(fields[1], ",", "."), 64)
	if err != nil {
		b.reply(ctx, chat, presentation.UsageMsg(proposeUsage), nil)
		return
	}

	in := service.ProposalInput{OrderID: orderID, Price: price}
	rest := fields[2:]
	if len(rest) > 0 {
		if days, err := strconv.Atoi(rest[0]); err == nil {
			in.EstimatedDuration = &days
			rest = rest[1:]
		}
	}
	in.Description = strings.Join(rest, " ")

	proposal, err := b.svc.CreateProposal(ctx, userFromContext(ctx), in)
	if err != nil {
		b.replyError(ctx, chat, err)
		return
	}
	b.reply(ctx, chat, presentation.ProposalCreatedMsg(proposal), nil)
}

func (b *Bot) handleChatCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chat := update.Message.Chat.ID
	orderID, ok := parseID(commandArgs(update.Message.Text))
	if !ok {
		b.reply(ctx, chat, presentation.UsageMsg("/chat <id заказа>"), nil)
		return
	}

	user := userFromContext(ctx)
	messages, err := b.svc.OrderMessages(ctx, user, orderID, domain.Page{Limit: service.MaxPageLimit})
	if err != nil {
		b.replyError(ctx, chat, err)
		return
	}
	b.reply(ctx, chat, presentation.ChatMsg(orderID, messages, user.ID), nil)
}

const sendUsage = "/send <id заказа> <текст>"

func (b *Bot) handleSendCmd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	chat := update.Message.Chat.ID
	rawID, text, _ := strings.Cut(commandArgs(update.Message.Text), " ")
	orderID, ok := parseID(rawID)
	if !ok || strings.TrimSpace(text) == "" {
		b.reply(ctx, chat, presentation.UsageMsg(sendUsage), nil)
		return
	}

	if _, err := b.svc.SendMessage(ctx, userFromContext(ctx), service.MessageInput{OrderID: orderID, Content: text}); err != nil {
		b.replyError(ctx, chat, err)
		return
	}
	b.reply(ctx, chat, presentation.MessageSentMsg(), nil)
}
