// Package common — telegram.go: общие утилиты отправки сообщений.
package common

import (
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Sender — часть *tgbotapi.BotAPI, которой пользуются обработчики.
// В тестах подменяется записывающей заглушкой.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SendHTML отправляет HTML-сообщение с необязательной клавиатурой.
func SendHTML(s Sender, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := s.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
	return sent, err
}

// EditHTML заменяет текст и клавиатуру существующего сообщения.
func EditHTML(s Sender, chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := s.Send(edit); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    chatID,
			"message_id": messageID,
		}).Warn("Не удалось отредактировать сообщение")
		return err
	}
	return nil
}

// DeleteLater удаляет сообщение через delay.
func DeleteLater(s Sender, chatID int64, messageID int, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		DeleteMessage(s, chatID, messageID)
	})
}

// DeleteMessage удаляет сообщение; ошибка только логируется.
func DeleteMessage(s Sender, chatID int64, messageID int) {
	if _, err := s.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    chatID,
			"message_id": messageID,
		}).Debug("Не удалось удалить сообщение")
	}
}

// Keyboard собирает inline-клавиатуру: по одной кнопке в ряд.
// pairs — текст и callback_data попеременно.
func Keyboard(pairs ...string) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(pairs[i], pairs[i+1]),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// DisplayName — имя для профиля: имя и фамилия, иначе @username, иначе id.
func DisplayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.UserName != "":
		return "@" + u.UserName
	default:
		return strconv.FormatInt(u.ID, 10)
	}
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML экранирует пользовательский текст для ParseMode HTML.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
