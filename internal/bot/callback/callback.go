// Package callback кодирует и разбирает callback_data inline-кнопок.
//
// Формат: действие и аргументы через двоеточие, например "done:1:4521".
// Telegram ограничивает callback_data 64 байтами — все форматы короче.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action — тип нажатой кнопки.
type Action string

const (
	ActionLang    Action = "lang"    // lang:<en|ru>
	ActionAgree   Action = "agree"   // agree:<шаг 1..3>
	ActionTasks   Action = "tasks"   // tasks
	ActionDone    Action = "done"    // done:<index>:<id сообщения профиля>
	ActionFriends Action = "friends" // friends
	ActionProfile Action = "profile" // profile
	ActionTop     Action = "top"     // top
)

// WelcomeSteps — число экранов приветствия.
const WelcomeSteps = 3

// ErrMalformed — callback_data не распознан.
var ErrMalformed = errors.New("некорректный callback_data")

// Data — разобранный callback.
type Data struct {
	Action       Action
	Lang         string // для lang
	Step         int    // для agree
	Index        int    // для done
	ProfileMsgID int    // для done: 0 — профиль не перерисовывать
}

// Lang возвращает данные кнопки выбора языка.
func Lang(lang string) string { return string(ActionLang) + ":" + lang }

// Agree возвращает данные кнопки экрана приветствия step.
func Agree(step int) string { return fmt.Sprintf("%s:%d", ActionAgree, step) }

// Done возвращает данные кнопки «выполнено».
func Done(index, profileMsgID int) string {
	return fmt.Sprintf("%s:%d:%d", ActionDone, index, profileMsgID)
}

// Simple возвращает данные кнопки без аргументов.
func Simple(a Action) string { return string(a) }

// Parse разбирает callback_data.
func Parse(raw string) (Data, error) {
	parts := strings.Split(raw, ":")
	d := Data{Action: Action(parts[0])}
	args := parts[1:]

	switch d.Action {
	case ActionLang:
		if len(args) != 1 || args[0] == "" {
			return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		d.Lang = args[0]

	case ActionAgree:
		if len(args) != 1 {
			return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		step, err := strconv.Atoi(args[0])
		if err != nil || step < 1 || step > WelcomeSteps {
			return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		d.Step = step

	case ActionDone:
		if len(args) < 1 || len(args) > 2 {
			return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 0 {
			return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}
		d.Index = index
		if len(args) == 2 {
			msgID, err := strconv.Atoi(args[1])
			if err != nil || msgID < 0 {
				return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
			}
			d.ProfileMsgID = msgID
		}

	case ActionTasks, ActionFriends, ActionProfile, ActionTop:
		if len(args) != 0 {
			return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
		}

	default:
		return Data{}, fmt.Errorf("%q: %w", raw, ErrMalformed)
	}
	return d, nil
}
