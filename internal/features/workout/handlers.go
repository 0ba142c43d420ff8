// Package workout — handlers.go: выдача заданий и кнопка «выполнено».
package workout

import (
	"context"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/bot/callback"
	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/i18n"
)

// Задержки удаления служебных сообщений.
const (
	completedMessageTTL = 3 * time.Second
	missingMessageTTL   = 1 * time.Second
)

// ProfileRenderer перерисовывает профиль в сообщении messageID.
type ProfileRenderer func(ctx context.Context, chatID int64, messageID int, userID int64)

// Handler обрабатывает события заданий.
type Handler struct {
	service  *Service
	profiles Profiles
	bot      common.Sender
	i18n     *i18n.Bundle
	render   ProfileRenderer
}

// NewHandler создаёт обработчик заданий.
func NewHandler(service *Service, profiles Profiles, bot common.Sender, bundle *i18n.Bundle, render ProfileRenderer) *Handler {
	return &Handler{service: service, profiles: profiles, bot: bot, i18n: bundle, render: render}
}

// HandleGetTasks отправляет по сообщению на каждое невыполненное задание.
// profileMsgID — сообщение профиля, которое перерисуется после выполнения.
func (h *Handler) HandleGetTasks(ctx context.Context, chatID, userID int64, profileMsgID int) {
	lang := h.lang(ctx, userID)

	tasks, err := h.service.GetTasks(ctx, userID)
	if err != nil {
		h.reportError(chatID, userID, lang, err)
		return
	}
	if len(tasks) == 0 {
		common.SendHTML(h.bot, chatID, h.i18n.T(lang, "no_tasks"), nil)
		return
	}

	for _, t := range tasks {
		keyboard := common.Keyboard(h.i18n.T(lang, "task_done"), callback.Done(t.Index, profileMsgID))
		common.SendHTML(h.bot, chatID, h.TaskText(lang, t), keyboard)
	}
}

// TaskText — текст задания: упражнение, количество и единица.
func (h *Handler) TaskText(lang string, t Task) string {
	unitKey := "unit_reps"
	if t.IsTime() {
		unitKey = "unit_seconds"
	}
	return h.i18n.T(lang, t.Code,
		"number", strconv.Itoa(t.Quantity),
		"unit", h.i18n.Plural(lang, unitKey, int64(t.Quantity)),
	)
}

// HandleDone выполняет задание, показывает начисленные очки и обновляет профиль.
//
// messageID — сообщение с заданием. Если profileMsgID == 0, профиль рисуется
// прямо в сообщении задания.
func (h *Handler) HandleDone(ctx context.Context, chatID int64, messageID int, userID int64, index, profileMsgID int) {
	lang := h.lang(ctx, userID)

	res, err := h.service.CompleteTask(ctx, userID, index)
	if errors.Is(err, common.ErrTaskNotFound) {
		common.EditHTML(h.bot, chatID, messageID, h.i18n.T(lang, "task_does_not_exist"), nil)
		common.DeleteLater(h.bot, chatID, messageID, missingMessageTTL)
		return
	}
	if err != nil {
		h.reportError(chatID, userID, lang, err)
		return
	}

	text := h.i18n.T(lang, "task_completed",
		"score", common.FormatNumber(res.Points),
		"points_word", h.i18n.Plural(lang, "unit_points", res.Points),
	)
	common.EditHTML(h.bot, chatID, messageID, text, nil)

	if profileMsgID == 0 {
		h.render(ctx, chatID, messageID, userID)
		return
	}
	h.render(ctx, chatID, profileMsgID, userID)
	common.DeleteLater(h.bot, chatID, messageID, completedMessageTTL)
}

func (h *Handler) lang(ctx context.Context, userID int64) string {
	u, err := h.profiles.GetProfile(ctx, userID)
	if err != nil || !i18n.Supported(u.Lang) {
		return i18n.LangEN
	}
	return u.Lang
}

func (h *Handler) reportError(chatID, userID int64, lang string, err error) {
	if errors.Is(err, common.ErrUserNotFound) {
		common.SendHTML(h.bot, chatID, h.i18n.T(lang, "not_registered"), nil)
		return
	}
	log.WithError(err).WithField("user_id", userID).Error("Ошибка заданий")
	common.SendHTML(h.bot, chatID, h.i18n.T(lang, "error"), nil)
}
