// Package bot содержит главный модуль бота — запуск, остановку и маршрутизацию.
// bot.go принимает апдейты long polling и раздаёт их обработчикам фич.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/bot/callback"
	"serotonyl.ru/fitmates-bot/internal/bot/filters"
	"serotonyl.ru/fitmates-bot/internal/bot/middleware"
	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/config"
	"serotonyl.ru/fitmates-bot/internal/features/friends"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
	"serotonyl.ru/fitmates-bot/internal/features/workout"
	"serotonyl.ru/fitmates-bot/internal/i18n"
)

// Updates — источник апдейтов. Реализуется *tgbotapi.BotAPI.
type Updates interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// API — всё, что бот использует из Telegram Bot API.
type API interface {
	common.Sender
	Updates
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api  API
	cfg  *config.Config
	i18n *i18n.Bundle

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	profileHandler *profile.Handler
	workoutHandler *workout.Handler
	friendsHandler *friends.Handler

	profileService *profile.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api API,
	cfg *config.Config,
	bundle *i18n.Bundle,
	profileService *profile.Service,
	profileHandler *profile.Handler,
	workoutHandler *workout.Handler,
	friendsHandler *friends.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		i18n:           bundle,
		chatFilter:     chatFilter,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		profileHandler: profileHandler,
		workoutHandler: workoutHandler,
		friendsHandler: friendsHandler,
		profileService: profileService,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Блокирует до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.wait()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.wait()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.HandleUpdate(ctx, upd)
			}(update)
		}
	}
}

// wait дожидается завершения обработчиков, запущенных до остановки.
func (b *Bot) wait() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
}

// HandleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	middleware.LogMessage(message)

	if !b.chatFilter.CheckMessage(message) {
		return
	}
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	chatID := message.Chat.ID
	from := message.From

	switch cmd {
	case "start":
		b.handleStart(ctx, message, args)

	case "profile":
		b.profileHandler.SendProfile(ctx, chatID, from.ID)

	case "top":
		b.profileHandler.SendLeaderboard(ctx, chatID, from.ID, from.LanguageCode)
	}
}

// handleStart — /start [код приглашения].
// Существующий пользователь с кодом сразу получает профиль, иначе — выбор языка.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message, args []string) {
	chatID := message.Chat.ID
	from := message.From

	exists, err := b.profileService.Exists(ctx, from.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("Ошибка проверки пользователя")
		common.SendHTML(b.api, chatID, b.i18n.T(b.i18n.Match(from.LanguageCode), "error"), nil)
		return
	}

	if len(args) > 0 {
		b.friendsHandler.HandleInvite(ctx, args[0], from)
	}

	if exists && len(args) > 0 {
		b.profileHandler.SendProfile(ctx, chatID, from.ID)
	} else {
		b.profileHandler.HandleStart(chatID)
	}
	common.DeleteMessage(b.api, chatID, message.MessageID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	middleware.LogCallback(cb)

	if !b.chatFilter.CheckCallback(cb) {
		b.answerCallback(cb, "")
		return
	}
	if !b.rateLimiter.Allow(cb.From.ID) {
		lang := b.profileHandler.Lang(ctx, cb.From.ID, cb.From.LanguageCode)
		b.answerCallback(cb, b.i18n.T(lang, "rate_limited"))
		return
	}
	b.answerCallback(cb, "")

	data, err := callback.Parse(cb.Data)
	if err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Warn("Неизвестная кнопка")
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	switch data.Action {
	case callback.ActionLang:
		b.profileHandler.HandleLanguage(ctx, chatID, messageID, cb.From, data.Lang)

	case callback.ActionAgree:
		b.profileHandler.HandleAgree(ctx, chatID, messageID, userID, data.Step)

	case callback.ActionTasks:
		b.workoutHandler.HandleGetTasks(ctx, chatID, userID, messageID)

	case callback.ActionDone:
		b.workoutHandler.HandleDone(ctx, chatID, messageID, userID, data.Index, data.ProfileMsgID)

	case callback.ActionFriends:
		b.friendsHandler.HandleFriends(ctx, chatID, messageID, cb.From)

	case callback.ActionProfile:
		b.profileHandler.EditProfile(ctx, chatID, messageID, userID)

	case callback.ActionTop:
		b.profileHandler.EditLeaderboard(ctx, chatID, messageID, userID, cb.From.LanguageCode)
	}
}

// answerCallback убирает «часики» на кнопке; text показывается всплывашкой.
func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.WithError(err).WithField("user_id", cb.From.ID).Debug("Не удалось ответить на callback")
	}
}
