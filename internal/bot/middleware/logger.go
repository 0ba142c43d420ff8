// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// maxLoggedText — сколько символов текста попадает в лог.
const maxLoggedText = 50

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, username, текст (первые 50 символов).
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.From == nil || message.Chat == nil {
		return
	}

	log.WithFields(log.Fields{
		"user_id":  message.From.ID,
		"chat_id":  message.Chat.ID,
		"username": message.From.UserName,
		"text":     truncate(message.Text),
	}).Debug("Входящее сообщение")
}

// LogCallback логирует нажатие inline-кнопки.
func LogCallback(cb *tgbotapi.CallbackQuery) {
	if cb == nil || cb.From == nil {
		return
	}

	fields := log.Fields{
		"user_id":  cb.From.ID,
		"username": cb.From.UserName,
		"data":     cb.Data,
	}
	if cb.Message != nil {
		fields["message_id"] = cb.Message.MessageID
	}
	log.WithFields(fields).Debug("Нажата кнопка")
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) > maxLoggedText {
		return string(r[:maxLoggedText]) + "..."
	}
	return text
}
