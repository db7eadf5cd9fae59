package presentation

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"taskboard/models"
)

func breakLine(n int) string {
	return strings.Repeat("\n", n)
}

func esc(s string) string {
	return html.EscapeString(s)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " ₽"
}

func GenericErrorMsg() string {
	return "<b>❌ Произошла неизвестная ошибка, попробуйте позже</b>"
}

func BlockedUserMsg() string {
	return "<b>⛔ Ваш аккаунт заблокирован</b>"
}

// reason отрезает от текста ошибки префикс sentinel-ошибки
func reason(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return ""
}

// ErrorMsg переводит ошибку сервиса в текст для чата
func ErrorMsg(err error) string {
	var head string
	var sentinel error
	switch {
	case errors.Is(err, models.ErrDuplicateProposal):
		return "<b>❌ Вы уже откликнулись на этот заказ</b>"
	case errors.Is(err, models.ErrNotFound):
		return "<b>🔍 Не найдено</b>"
	case errors.Is(err, models.ErrForbidden):
		head, sentinel = "⛔ Недостаточно прав", models.ErrForbidden
	case errors.Is(err, models.ErrInvalidState):
		head, sentinel = "⚠️ Действие недоступно в текущем статусе", models.ErrInvalidState
	case errors.Is(err, models.ErrValidation):
		head, sentinel = "❌ Некорректные данные", models.ErrValidation
	default:
		return GenericErrorMsg()
	}

	var sb strings.Builder
	sb.WriteString("<b>" + head + "</b>")
	if r := reason(err, sentinel); r != "" {
		sb.WriteString(breakLine(1))
		sb.WriteString("<i>" + esc(r) + "</i>")
	}
	return sb.String()
}

func HelpMsg() string {
	var sb strings.Builder
	sb.WriteString("<b>🤖 Биржа заказов</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>⚙️ Доступные команды:</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("/profile - ваш профиль\n")
	sb.WriteString("/orders - мои заказы\n")
	sb.WriteString("/available - открытые заказы\n")
	sb.WriteString("/proposals - мои отклики\n")
	sb.WriteString("/propose &lt;id&gt; &lt;цена&gt; [дней] [текст] - откликнуться на заказ\n")
	sb.WriteString("/chat &lt;id&gt; - переписка по заказу\n")
	sb.WriteString("/send &lt;id&gt; &lt;текст&gt; - написать по заказу\n")
	sb.WriteString("/link &lt;код&gt; - привязать веб-аккаунт")
	return sb.String()
}

func WelcomeMsg(u *models.User) string {
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return fmt.Sprintf("<b>👋 Привет, %s!</b>", esc(name)) + breakLine(2) + HelpMsg()
}

func LinkUsageMsg() string {
	return "<b>🔗 Получите код на сайте в разделе Telegram и отправьте:</b>\n/link &lt;код&gt;"
}

func LinkedMsg(u *models.User) string {
	return fmt.Sprintf("<b>✅ Telegram привязан к аккаунту %s</b>", esc(u.Username))
}

func UsageMsg(usage string) string {
	return "<b>ℹ️ Использование:</b> " + esc(usage)
}

func roleLabel(r models.Role) string {
	switch r {
	case models.RoleCustomer:
		return "Заказчик"
	case models.RoleExecutor:
		return "Исполнитель"
	case models.RoleAdmin:
		return "Администратор"
	default:
		return string(r)
	}
}

func ProfileMsg(u *models.User) string {
	var sb strings.Builder
	sb.WriteString("<b>👤 Профиль</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString(fmt.Sprintf("<b>Логин:</b> %s\n", esc(u.Username)))
	if u.FullName != "" {
		sb.WriteString(fmt.Sprintf("<b>Имя:</b> %s\n", esc(u.FullName)))
	}
	sb.WriteString(fmt.Sprintf("<b>Роль:</b> %s\n", roleLabel(u.Role)))
	sb.WriteString(fmt.Sprintf("<b>Рейтинг:</b> %.1f\n", u.Rating))
	sb.WriteString(fmt.Sprintf("<b>Выполнено заказов:</b> %d\n", u.CompletedTasks))
	if u.IsBotOnly() {
		sb.WriteString(breakLine(1))
		sb.WriteString("<i>Аккаунт создан в боте. Чтобы работать и на сайте, привяжите веб-аккаунт через /link</i>")
	}
	return sb.String()
}

func statusEmoji(s models.OrderStatus) string {
	switch s {
	case models.OrderOpen:
		return "🟢"
	case models.OrderInProgress:
		return "🟡"
	case models.OrderCompleted:
		return "✅"
	case models.OrderCancelled:
		return "❌"
	default:
		return "❓"
	}
}

func statusLabel(s models.OrderStatus) string {
	switch s {
	case models.OrderOpen:
		return "Открыт"
	case models.OrderInProgress:
		return "В работе"
	case models.OrderCompleted:
		return "Завершён"
	case models.OrderCancelled:
		return "Отменён"
	default:
		return "Неизвестно"
	}
}

func proposalStatusLabel(s models.ProposalStatus) string {
	switch s {
	case models.ProposalPending:
		return "⏳ Ожидает"
	case models.ProposalAccepted:
		return "✅ Принят"
	case models.ProposalRejected:
		return "❌ Отклонён"
	case models.ProposalWithdrawn:
		return "↩️ Отозван"
	default:
		return string(s)
	}
}

func OrderListMsg(title string, orders []models.Order) string {
	var sb strings.Builder
	if len(orders) == 0 {
		sb.WriteString(fmt.Sprintf("<b>%s</b>", esc(title)))
		sb.WriteString(breakLine(2))
		sb.WriteString("📭 Пока нет заказов")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("<b>%s (%d):</b>", esc(title), len(orders)))
	sb.WriteString(breakLine(2))
	for i, o := range orders {
		sb.WriteString(fmt.Sprintf("%d. %s <b>%s</b> #%d\n", i+1, statusEmoji(o.Status), esc(o.Title), o.ID))
		sb.WriteString(fmt.Sprintf("   Бюджет: %s\n", money(o.Budget)))
		sb.WriteString(fmt.Sprintf("   Срок: %s\n", o.Deadline.Format("02.01.2006")))
	}
	return sb.String()
}

func OrderDetailsMsg(o *models.Order, proposals int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>📦 Заказ #%d: %s</b>", o.ID, esc(o.Title)))
	sb.WriteString(breakLine(2))
	if o.Description != "" {
		sb.WriteString(esc(o.Description))
		sb.WriteString(breakLine(2))
	}
	sb.WriteString(fmt.Sprintf("<b>Статус:</b> %s %s\n", statusEmoji(o.Status), statusLabel(o.Status)))
	sb.WriteString(fmt.Sprintf("<b>Бюджет:</b> %s\n", money(o.Budget)))
	sb.WriteString(fmt.Sprintf("<b>Срок:</b> %s\n", o.Deadline.Format("02.01.2006")))
	sb.WriteString(fmt.Sprintf("<b>Приоритет:</b> %s\n", o.Priority))
	if len(o.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("<b>Теги:</b> %s\n", esc(strings.Join(o.Tags, ", "))))
	}
	sb.WriteString(fmt.Sprintf("<b>Откликов:</b> %d", proposals))
	if o.Status == models.OrderOpen {
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("<i>Откликнуться: /propose %d &lt;цена&gt;</i>", o.ID))
	}
	return sb.String()
}

func ProposalListMsg(title string, proposals []models.Proposal) string {
	var sb strings.Builder
	if len(proposals) == 0 {
		sb.WriteString(fmt.Sprintf("<b>%s</b>", esc(title)))
		sb.WriteString(breakLine(2))
		sb.WriteString("📭 Откликов нет")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("<b>%s (%d):</b>", esc(title), len(proposals)))
	sb.WriteString(breakLine(2))
	for i, p := range proposals {
		sb.WriteString(fmt.Sprintf("%d. Отклик #%d на заказ #%d\n", i+1, p.ID, p.OrderID))
		sb.WriteString(fmt.Sprintf("   Цена: %s\n", money(p.Price)))
		if p.EstimatedDuration != nil {
			sb.WriteString(fmt.Sprintf("   Срок: %d дн.\n", *p.EstimatedDuration))
		}
		if p.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", esc(p.Description)))
		}
		sb.WriteString(fmt.Sprintf("   %s\n", proposalStatusLabel(p.Status)))
	}
	return sb.String()
}

func ProposalCreatedMsg(p *models.Proposal) string {
	return fmt.Sprintf("<b>✅ Отклик #%d на заказ #%d отправлен</b>\nЦена: %s", p.ID, p.OrderID, money(p.Price))
}

func ProposalDecisionMsg(p *models.Proposal) string {
	return fmt.Sprintf("<b>Отклик #%d:</b> %s", p.ID, proposalStatusLabel(p.Status))
}

func ChatMsg(orderID int64, messages []models.Message, viewerID int64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>💬 Переписка по заказу #%d</b>", orderID))
	sb.WriteString(breakLine(2))
	if len(messages) == 0 {
		sb.WriteString("📭 Сообщений пока нет")
		sb.WriteString(breakLine(2))
		sb.WriteString(fmt.Sprintf("<i>Написать: /send %d &lt;текст&gt;</i>", orderID))
		return sb.String()
	}
	for _, m := range messages {
		who := "Собеседник"
		if m.SenderID == viewerID {
			who = "Вы"
		}
		sb.WriteString(fmt.Sprintf("<b>%s</b> <i>%s</i>\n%s\n\n", who, m.CreatedAt.Format("02.01 15:04"), esc(m.Content)))
	}
	sb.WriteString(fmt.Sprintf("<i>Написать: /send %d &lt;текст&gt;</i>", orderID))
	return sb.String()
}

func MessageSentMsg() string {
	return "<b>✉️ Сообщение отправлено</b>"
}
