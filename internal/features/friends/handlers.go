// Package friends — handlers.go: экран друзей и приём приглашений.
package friends

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/bot/callback"
	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/i18n"
)

// Languages возвращает язык пользователя.
type Languages func(ctx context.Context, userID int64, languageCode string) string

// Handler обрабатывает события друзей.
type Handler struct {
	service     *Service
	bot         common.Sender
	i18n        *i18n.Bundle
	lang        Languages
	botUsername string
}

// NewHandler создаёт обработчик друзей.
func NewHandler(service *Service, bot common.Sender, bundle *i18n.Bundle, lang Languages, botUsername string) *Handler {
	return &Handler{service: service, bot: bot, i18n: bundle, lang: lang, botUsername: botUsername}
}

// HandleFriends показывает список друзей и реферальную ссылку вместо сообщения messageID.
func (h *Handler) HandleFriends(ctx context.Context, chatID int64, messageID int, from *tgbotapi.User) {
	lang := h.lang(ctx, from.ID, from.LanguageCode)

	list, err := h.service.Friends(ctx, from.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("Ошибка получения друзей")
		common.SendHTML(h.bot, chatID, h.i18n.T(lang, "error"), nil)
		return
	}

	link := h.service.ReferralLink(h.botUsername, from.ID)

	var sb strings.Builder
	if len(list) == 0 {
		sb.WriteString(h.i18n.T(lang, "no_friends"))
	} else {
		sb.WriteString(h.i18n.T(lang, "your_friends"))
		for _, f := range list {
			sb.WriteString("\n")
			sb.WriteString(h.i18n.T(lang, "friend_row",
				"name", common.EscapeHTML(f.Username),
				"points", common.FormatNumber(f.Points),
				"streak", strconv.Itoa(f.Streak),
			))
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(h.i18n.T(lang, "referral_link"))
	sb.WriteString("\n<code>" + link + "</code>")

	keyboard := common.Keyboard(h.i18n.T(lang, "go_to_profile"), callback.Simple(callback.ActionProfile))
	common.EditHTML(h.bot, chatID, messageID, sb.String(), keyboard)
}

// HandleInvite принимает код из /start и сообщает пригласившему о новом друге.
// Битый код только логируется: пользователь продолжает обычный /start.
func (h *Handler) HandleInvite(ctx context.Context, code string, from *tgbotapi.User) {
	inviterID, err := h.service.AcceptInvite(ctx, code, from.ID)
	switch {
	case IsInvalidInvite(err):
		log.WithFields(log.Fields{
			"user_id": from.ID,
			"code":    code,
		}).Warn("Некорректный код приглашения")
		return
	case err != nil:
		log.WithError(err).WithField("user_id", from.ID).Error("Ошибка приёма приглашения")
		return
	case inviterID == 0:
		return
	}

	lang := h.lang(ctx, inviterID, "")
	text := h.i18n.T(lang, "friend_joined", "name", common.EscapeHTML(common.DisplayName(from)))
	common.SendHTML(h.bot, inviterID, text, nil)
}
