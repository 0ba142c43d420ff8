// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает хранилище, создаёт сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/bot"
	"serotonyl.ru/fitmates-bot/internal/bot/filters"
	"serotonyl.ru/fitmates-bot/internal/config"
	"serotonyl.ru/fitmates-bot/internal/db/memory"
	"serotonyl.ru/fitmates-bot/internal/db/postgres"
	"serotonyl.ru/fitmates-bot/internal/features/friends"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
	"serotonyl.ru/fitmates-bot/internal/features/workout"
	"serotonyl.ru/fitmates-bot/internal/i18n"
	"serotonyl.ru/fitmates-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler // nil, если ротация выключена
	DB        *pgxpool.Pool   // nil при STORAGE_DRIVER=memory
	BotAPI    *tgbotapi.BotAPI
}

// stores — реализации хранилищ для выбранного драйвера.
type stores struct {
	profiles profile.Store
	tasks    workout.TaskStore
	friends  friends.Store
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище ===
	pool, st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Переводы и реферальные коды ===
	bundle, err := i18n.Load()
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ошибка загрузки переводов: %w", err)
	}
	codec, err := friends.NewCodec(cfg.ReferralSecret)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 4. Сервисы ===
	profileService := profile.NewService(st.profiles)
	generator := workout.NewGenerator(workout.Catalog, nil, nil)
	workoutService := workout.NewService(st.tasks, profileService, generator, nil)
	friendsService := friends.NewService(st.friends, codec)

	// === 5. Обработчики ===
	profileHandler := profile.NewHandler(profileService, botAPI, bundle, cfg.LeaderboardSize)
	workoutHandler := workout.NewHandler(workoutService, profileService, botAPI, bundle, profileHandler.EditProfile)
	friendsHandler := friends.NewHandler(friendsService, botAPI, bundle, profileHandler.Lang, botAPI.Self.UserName)

	// === 6. Собираем бота ===
	b := bot.New(
		botAPI, cfg, bundle,
		profileService,
		profileHandler,
		workoutHandler,
		friendsHandler,
		filters.NewChatFilter(),
	)

	// === 7. Планировщик задач ===
	var scheduler *jobs.Scheduler
	if cfg.FeatureTaskRotation {
		scheduler = jobs.NewScheduler(workoutService, cfg.Location(), cfg.TasksRotationSpec)
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// openStorage подключает хранилище по STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, stores, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("STORAGE_DRIVER=memory — данные пропадут при перезапуске")
		m := memory.New()
		return nil, stores{profiles: m, tasks: m, friends: m}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, stores{}, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool, postgres.Migrations); err != nil {
		pool.Close()
		return nil, stores{}, fmt.Errorf("ошибка миграций: %w", err)
	}

	return pool, stores{
		profiles: profile.NewRepository(pool),
		tasks:    workout.NewRepository(pool),
		friends:  friends.NewRepository(pool),
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	closePool(a.DB)
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
