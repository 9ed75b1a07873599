package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/models"
)

// AlertSource lists users and computes their alerts.
type AlertSource interface {
	Users(ctx context.Context) ([]models.User, error)
	Alerts(ctx context.Context, ownerID int64) ([]models.Alert, error)
}

// Notifier delivers a user's alerts.
type Notifier interface {
	SendAlerts(to, name string, alerts []models.Alert) error
}

// Report summarizes one alert run.
type Report struct {
	Users    int
	Notified int
	Failed   int
}

// Scheduler runs alert delivery on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	source   AlertSource
	notifier Notifier
	log      *logrus.Logger
	timeout  time.Duration
}

func New(source AlertSource, notifier Notifier, log *logrus.Logger) *Scheduler {
	logger := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		source:   source,
		notifier: notifier,
		log:      log,
		timeout:  5 * time.Minute,
	}
}

// Start schedules the alert job with a standard five-field cron spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid alert schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Infof("Alert job scheduled: %s", spec)
	return nil
}

// Stop halts the cron loop and waits for a running job until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Alert job still running at shutdown")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.WithError(err).Error("Alert job failed")
	}
}

// RunOnce mails every user with an e-mail address their current alerts.
// A failure for one user is logged and does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	users, err := s.source.Users(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if u.Email == "" {
			continue
		}
		report.Users++

		alerts, err := s.source.Alerts(ctx, u.ID)
		if err != nil {
			report.Failed++
			s.log.WithError(err).WithField("user_id", u.ID).Error("Failed to compute alerts")
			continue
		}
		if len(alerts) == 0 {
			continue
		}

		name := u.Name
		if name == "" {
			name = u.Username
		}
		if err := s.notifier.SendAlerts(u.Email, name, alerts); err != nil {
			report.Failed++
			continue
		}
		report.Notified++
	}

	s.log.WithFields(logrus.Fields{
		"users":    report.Users,
		"notified": report.Notified,
		"failed":   report.Failed,
	}).Info("Alert job finished")
	return report, nil
}
