// Package filters решает, какие апдейты бот обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только личные чаты с живыми пользователями.
// В группах профиль и задания не показываются.
type ChatFilter struct{}

func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

// CheckMessage проверяет входящее сообщение.
func (f *ChatFilter) CheckMessage(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil || message.From.IsBot {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("deny: service message or bot")
		return false
	}
	return f.allowChat(message.Chat, message.From.ID)
}

// CheckCallback проверяет нажатие кнопки.
func (f *ChatFilter) CheckCallback(cb *tgbotapi.CallbackQuery) bool {
	if cb == nil || cb.From == nil {
		log.WithField("component", "ChatFilter").Warn("nil callback/from")
		return false
	}
	// Кнопки inline-режима приходят без сообщения
	if cb.Message == nil || cb.Message.Chat == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"user_id":   cb.From.ID,
		}).Debug("deny: callback without message")
		return false
	}
	return f.allowChat(cb.Message.Chat, cb.From.ID)
}

func (f *ChatFilter) allowChat(chat *tgbotapi.Chat, userID int64) bool {
	if chat.IsPrivate() {
		return true
	}
	log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chat.ID,
		"chat_type": chat.Type,
		"user_id":   userID,
	}).Debug("deny: not a private chat")
	return false
}
