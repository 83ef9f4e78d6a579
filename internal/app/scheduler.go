package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentorship_bot/internal/service"
	"go.uber.org/zap"
)

// Запросы старше этого срока считаются зависшими и попадают в напоминание
const staleRequestAge = 3 * 24 * time.Hour

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	mentorshipService *service.MentorshipService
	logger            *zap.Logger
	stopChan          chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(mentorshipService *service.MentorshipService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		mentorshipService: mentorshipService,
		logger:            logger,
		stopChan:          make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	// Запускаем задачу напоминаний о зависших запросах
	go s.runReminderTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runReminderTask раз в сутки напоминает менторам о неотвеченных запросах
func (s *Scheduler) runReminderTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.remindStalePending(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.remindStalePending(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder task cancelled")
			return
		}
	}
}

// remindStalePending отправляет напоминания по всем зависшим запросам
func (s *Scheduler) remindStalePending(ctx context.Context) {
	s.logger.Info("Starting stale request reminder run")

	err := s.mentorshipService.NotifyStalePending(ctx, staleRequestAge)
	if err != nil {
		s.logger.Error("Failed to send stale request reminders", zap.Error(err))
		return
	}

	s.logger.Info("Stale request reminder run completed")
}
