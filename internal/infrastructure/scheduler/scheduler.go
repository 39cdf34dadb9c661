// Package scheduler runs the background jobs: the midnight streak
// recomputation and the periodic provider re-sync for linked accounts.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/storage/remotestore"
	"github.com/ewellner/daybridge/internal/syncer"
	"github.com/ewellner/daybridge/pkg/logger"
)

const resyncInterval = 30 * time.Minute

type Scheduler struct {
	controller *syncer.Controller
	remote     *remotestore.Store
	logger     *logger.Logger
}

func NewScheduler(controller *syncer.Controller, remote *remotestore.Store, log *logger.Logger) *Scheduler {
	return &Scheduler{
		controller: controller,
		remote:     remote,
		logger:     log,
	}
}

// Start launches the background loops. Both run until the context is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	untilMidnight := nextMidnight.Sub(now)

	s.logger.Info("Scheduler initialized",
		zap.Time("next_streak_run", nextMidnight),
		zap.Duration("resync_interval", resyncInterval),
	)

	go func() {
		timer := time.NewTimer(untilMidnight)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			s.runStreakRecompute(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(resyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runCalendarResync(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// runStreakRecompute walks every linked profile and recomputes habit
// streaks so the day rollover doesn't show stale counts.
func (s *Scheduler) runStreakRecompute(ctx context.Context) {
	start := time.Now()
	profiles, err := s.remote.LinkedProfiles(ctx)
	if err != nil {
		s.logger.Error("Streak recompute: failed to list profiles", zap.Error(err))
		return
	}

	for _, p := range profiles {
		sess := storage.Session{UID: p.UID, CalendarToken: p.CalendarToken}
		if err := s.controller.RecomputeStreaks(ctx, sess); err != nil {
			s.logger.Error("Streak recompute failed",
				zap.String("uid", p.UID), zap.Error(err))
		}
	}

	s.logger.Info("Daily streak recompute finished",
		zap.Int("profiles", len(profiles)),
		zap.Duration("duration", time.Since(start)),
	)
}

// runCalendarResync refreshes the provider window for every linked account
// so the stored events don't drift from the provider between visits.
func (s *Scheduler) runCalendarResync(ctx context.Context) {
	profiles, err := s.remote.LinkedProfiles(ctx)
	if err != nil {
		s.logger.Error("Calendar resync: failed to list profiles", zap.Error(err))
		return
	}

	for _, p := range profiles {
		sess := storage.Session{UID: p.UID, CalendarToken: p.CalendarToken}
		if _, err := s.controller.RefreshCalendar(ctx, sess); err != nil {
			s.logger.Error("Calendar resync failed",
				zap.String("uid", p.UID), zap.Error(err))
		}
	}
}
