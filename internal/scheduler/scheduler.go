// Package scheduler runs the periodic background jobs: next-day booking
// reminders and the refresh-token purge.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/model"
)

// tokenRetention is how long expired or revoked refresh tokens are kept.
const tokenRetention = 7 * 24 * time.Hour

// BookingLister returns bookings in a status on one date.
type BookingLister interface {
	ListByStatusOnDate(ctx context.Context, status model.BookingStatus, date string) ([]model.BookingDetail, error)
}

// Reminder publishes a reminder for one booking.
type Reminder interface {
	Remind(ctx context.Context, d model.BookingDetail, at time.Time) error
}

// TokenPurger deletes stale refresh tokens.
type TokenPurger interface {
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the cron expressions (with a seconds field).
type Config struct {
	ReminderSpec   string
	TokenPurgeSpec string
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	bookings BookingLister
	reminder Reminder
	tokens   TokenPurger
	log      logrus.FieldLogger
	now      func() time.Time
}

// New creates a scheduler with seconds precision.  Jobs are registered by
// Start.
func New(cfg Config, bookings BookingLister, reminder Reminder, tokens TokenPurger, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		bookings: bookings,
		reminder: reminder,
		tokens:   tokens,
		log:      log.WithField("component", "scheduler"),
		now:      time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, s.reminderJob); err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}
	s.log.WithField("spec", s.cfg.ReminderSpec).Info("scheduled booking reminders")

	if _, err := s.cron.AddFunc(s.cfg.TokenPurgeSpec, s.purgeJob); err != nil {
		return fmt.Errorf("schedule token purge job: %w", err)
	}
	s.log.WithField("spec", s.cfg.TokenPurgeSpec).Info("scheduled refresh token purge")

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// RunRemindersNow sends reminders for tomorrow's approved bookings and
// returns how many were published.
func (s *Scheduler) RunRemindersNow(ctx context.Context) (int, error) {
	now := s.now()
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	list, err := s.bookings.ListByStatusOnDate(ctx, model.StatusApproved, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("list approved bookings for %s: %w", tomorrow, err)
	}
	sent := 0
	for _, d := range list {
		if err := s.reminder.Remind(ctx, d, now); err != nil {
			s.log.WithError(err).WithField("booking_id", d.ID).Warn("reminder not published")
			continue
		}
		sent++
	}
	return sent, nil
}

// PurgeTokensNow deletes refresh tokens expired or revoked before the
// retention cutoff.
func (s *Scheduler) PurgeTokensNow(ctx context.Context) (int64, error) {
	return s.tokens.PurgeStale(ctx, s.now().Add(-tokenRetention))
}

func (s *Scheduler) reminderJob() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := s.RunRemindersNow(ctx)
	if err != nil {
		s.log.WithError(err).Error("reminder job failed")
		return
	}
	s.log.WithFields(logrus.Fields{"sent": n, "took": time.Since(start).String()}).Info("reminder job finished")
}

func (s *Scheduler) purgeJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.PurgeTokensNow(ctx)
	if err != nil {
		s.log.WithError(err).Error("token purge failed")
		return
	}
	s.log.WithField("deleted", n).Info("token purge finished")
}
