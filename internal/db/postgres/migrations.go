// Package postgres — migrations.go: схема БД бота.
package postgres

// Migrations — все версии схемы по порядку.
// SQL встроен в код: бот деплоится одним бинарником.
var Migrations = []Migration{
	{Version: 1, Name: "users", SQL: migration001Users},
	{Version: 2, Name: "tasks", SQL: migration002Tasks},
	{Version: 3, Name: "friends", SQL: migration003Friends},
}

// streak_timestamp: NULL — ещё не записан, 0 — новый пользователь.
const migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    lang VARCHAR(8) NOT NULL DEFAULT 'en',
    points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
    streak INTEGER NOT NULL DEFAULT 0 CHECK (streak >= 0),
    tasks_completed INTEGER NOT NULL DEFAULT 0 CHECK (tasks_completed >= 0),
    strength_modifier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    streak_timestamp BIGINT DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC, id ASC);
`

const migration002Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    task_code VARCHAR(64) NOT NULL,
    number INTEGER NOT NULL CHECK (number >= 1),
    multiplier DOUBLE PRECISION NOT NULL,
    created_at BIGINT NOT NULL,
    task_index SMALLINT NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    completed_at BIGINT
);
CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_pending_created ON tasks(created_at) WHERE status = 'pending';
`

// Приглашение может прийти до регистрации друга, поэтому без внешних ключей.
const migration003Friends = `
CREATE TABLE IF NOT EXISTS friends (
    user1_id BIGINT NOT NULL,
    user2_id BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user1_id, user2_id)
);
CREATE INDEX IF NOT EXISTS idx_friends_user2 ON friends(user2_id);
`
