package presentation

import (
	"errors"
	"strconv"
	"strings"
)

// Action префикс callback-данных inline-кнопки
type Action string

const (
	ActionOrder     Action = "order"
	ActionProposals Action = "proposals"
	ActionAccept    Action = "accept"
	ActionReject    Action = "reject"
	ActionWithdraw  Action = "withdraw"
	ActionComplete  Action = "complete"
	ActionCancel    Action = "cancel"
	ActionRestore   Action = "restore"
)

var ErrBadCallback = errors.New("malformed callback data")

// Prefix используется при регистрации обработчика с bot.MatchTypePrefix
func (a Action) Prefix() string {
	return string(a) + ":"
}

func Callback(a Action, id int64) string {
	return a.Prefix() + strconv.FormatInt(id, 10)
}

// ParseCallback разбирает данные вида "accept:42"
func ParseCallback(data string) (Action, int64, error) {
	action, raw, found := strings.Cut(data, ":")
	if !found || action == "" {
		return "", 0, ErrBadCallback
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, ErrBadCallback
	}
	return Action(action), id, nil
}
