// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает ежедневную ротацию невыполненных заданий.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/common"
)

// Rotator удаляет невыполненные задания, созданные раньше before.
// Реализуется *workout.Service.
type Rotator interface {
	RotateStale(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron    *cron.Cron
	rotator Rotator
	loc     *time.Location
	spec    string
	now     func() time.Time
}

// NewScheduler создаёт планировщик в часовом поясе loc.
func NewScheduler(rotator Rotator, loc *time.Location, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		rotator: rotator,
		loc:     loc,
		spec:    spec,
		now:     time.Now,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RotateTasks(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"spec":     s.spec,
		"timezone": s.loc.String(),
	}).Info("Планировщик задач запущен")
	return nil
}

// RotateTasks удаляет вчерашние невыполненные задания.
// Следующий запрос заданий создаст новую пачку.
func (s *Scheduler) RotateTasks(ctx context.Context) {
	midnight := common.StartOfDay(s.now(), s.loc)
	log.WithField("before", midnight.Format(time.RFC3339)).Info("[CRON] Ротация заданий")
	if _, err := s.rotator.RotateStale(ctx, midnight); err != nil {
		log.WithError(err).Error("[CRON] Ошибка ротации заданий")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
