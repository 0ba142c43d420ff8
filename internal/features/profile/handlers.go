// Package profile — handlers.go: выбор языка, приветствие, профиль и лидерборд.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/bot/callback"
	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/i18n"
)

// Handler обрабатывает экраны профиля.
type Handler struct {
	service         *Service
	bot             common.Sender
	i18n            *i18n.Bundle
	leaderboardSize int
}

// NewHandler создаёт обработчик профиля.
func NewHandler(service *Service, bot common.Sender, bundle *i18n.Bundle, leaderboardSize int) *Handler {
	return &Handler{service: service, bot: bot, i18n: bundle, leaderboardSize: leaderboardSize}
}

// Lang возвращает язык пользователя: из профиля, иначе по language_code Telegram.
func (h *Handler) Lang(ctx context.Context, userID int64, languageCode string) string {
	u, err := h.service.GetProfile(ctx, userID)
	if err == nil && i18n.Supported(u.Lang) {
		return u.Lang
	}
	return h.i18n.Match(languageCode)
}

// HandleStart показывает клавиатуру выбора языка.
func (h *Handler) HandleStart(chatID int64) {
	keyboard := common.Keyboard(
		"🇺🇸 English", callback.Lang(i18n.LangEN),
		"🇷🇺 Русский", callback.Lang(i18n.LangRU),
	)
	common.SendHTML(h.bot, chatID, h.i18n.T(i18n.LangEN, "choose_language"), keyboard)
}

// HandleLanguage регистрирует пользователя с выбранным языком и открывает приветствие.
func (h *Handler) HandleLanguage(ctx context.Context, chatID int64, messageID int, from *tgbotapi.User, lang string) {
	if !i18n.Supported(lang) {
		lang = h.i18n.Match(from.LanguageCode)
	}
	if err := h.service.Register(ctx, from.ID, common.DisplayName(from), lang); err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("Ошибка регистрации")
		common.EditHTML(h.bot, chatID, messageID, h.i18n.T(lang, "error"), nil)
		return
	}
	h.showWelcome(chatID, messageID, lang, 1)
}

// HandleAgree переключает экраны приветствия; после последнего — профиль.
func (h *Handler) HandleAgree(ctx context.Context, chatID int64, messageID int, userID int64, step int) {
	if step < callback.WelcomeSteps {
		h.showWelcome(chatID, messageID, h.Lang(ctx, userID, ""), step+1)
		return
	}
	h.EditProfile(ctx, chatID, messageID, userID)
}

func (h *Handler) showWelcome(chatID int64, messageID int, lang string, step int) {
	text := h.i18n.T(lang, fmt.Sprintf("welcome_message_%d", step))
	button := h.i18n.T(lang, fmt.Sprintf("agree_button_%d", step))
	common.EditHTML(h.bot, chatID, messageID, text, common.Keyboard(button, callback.Agree(step)))
}

// SendProfile отправляет профиль новым сообщением.
func (h *Handler) SendProfile(ctx context.Context, chatID, userID int64) {
	text, keyboard, ok := h.renderProfile(ctx, chatID, userID)
	if !ok {
		return
	}
	common.SendHTML(h.bot, chatID, text, keyboard)
}

// EditProfile перерисовывает профиль в сообщении messageID.
func (h *Handler) EditProfile(ctx context.Context, chatID int64, messageID int, userID int64) {
	text, keyboard, ok := h.renderProfile(ctx, chatID, userID)
	if !ok {
		return
	}
	common.EditHTML(h.bot, chatID, messageID, text, keyboard)
}

func (h *Handler) renderProfile(ctx context.Context, chatID, userID int64) (string, *tgbotapi.InlineKeyboardMarkup, bool) {
	u, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.reportError(chatID, userID, err)
		return "", nil, false
	}
	rank, err := h.service.Rank(ctx, userID)
	if err != nil {
		h.reportError(chatID, userID, err)
		return "", nil, false
	}

	text := h.i18n.T(u.Lang, "profile",
		"name", common.EscapeHTML(u.Username),
		"points", common.FormatNumber(u.Points),
		"streak", strconv.Itoa(u.Streak),
		"tasks_completed", strconv.Itoa(u.TasksCompleted),
		"rank", strconv.Itoa(rank),
	)
	keyboard := common.Keyboard(
		h.i18n.T(u.Lang, "add_friends"), callback.Simple(callback.ActionFriends),
		h.i18n.T(u.Lang, "get_tasks"), callback.Simple(callback.ActionTasks),
		h.i18n.T(u.Lang, "leaderboard"), callback.Simple(callback.ActionTop),
	)
	return text, keyboard, true
}

// SendLeaderboard отправляет топ новым сообщением (/top).
func (h *Handler) SendLeaderboard(ctx context.Context, chatID, userID int64, languageCode string) {
	text, keyboard, ok := h.renderLeaderboard(ctx, chatID, userID, languageCode)
	if !ok {
		return
	}
	common.SendHTML(h.bot, chatID, text, keyboard)
}

// EditLeaderboard показывает топ вместо сообщения messageID (кнопка под профилем).
func (h *Handler) EditLeaderboard(ctx context.Context, chatID int64, messageID int, userID int64, languageCode string) {
	text, keyboard, ok := h.renderLeaderboard(ctx, chatID, userID, languageCode)
	if !ok {
		return
	}
	common.EditHTML(h.bot, chatID, messageID, text, keyboard)
}

func (h *Handler) renderLeaderboard(ctx context.Context, chatID, userID int64, languageCode string) (string, *tgbotapi.InlineKeyboardMarkup, bool) {
	lang := h.Lang(ctx, userID, languageCode)
	entries, err := h.service.Leaderboard(ctx)
	if err != nil {
		h.reportError(chatID, userID, err)
		return "", nil, false
	}
	if len(entries) > h.leaderboardSize {
		entries = entries[:h.leaderboardSize]
	}

	var sb strings.Builder
	sb.WriteString(h.i18n.T(lang, "leaderboard_title", "count", strconv.Itoa(h.leaderboardSize)))
	sb.WriteString("\n\n")
	if len(entries) == 0 {
		sb.WriteString(h.i18n.T(lang, "leaderboard_empty"))
	}
	for i, e := range entries {
		sb.WriteString(h.i18n.T(lang, "leaderboard_row",
			"place", strconv.Itoa(i+1),
			"name", common.EscapeHTML(e.Username),
			"points", common.FormatNumber(e.Points),
			"streak", strconv.Itoa(e.Streak),
		))
		sb.WriteString("\n")
	}

	keyboard := common.Keyboard(h.i18n.T(lang, "go_to_profile"), callback.Simple(callback.ActionProfile))
	return strings.TrimRight(sb.String(), "\n"), keyboard, true
}

// reportError логирует ошибку и показывает пользователю понятное сообщение.
func (h *Handler) reportError(chatID, userID int64, err error) {
	if errors.Is(err, common.ErrUserNotFound) {
		common.SendHTML(h.bot, chatID, h.i18n.T(i18n.LangEN, "not_registered"), nil)
		return
	}
	log.WithError(err).WithField("user_id", userID).Error("Ошибка профиля")
	common.SendHTML(h.bot, chatID, h.i18n.T(i18n.LangEN, "error"), nil)
}
