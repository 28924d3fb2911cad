package services

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	lockTrashPurge = "trash_purge"
	lockLogCleanup = "log_cleanup"

	logCleanupSchedule = "30 3 * * *"
)

// cronPrintf routes cron's own log lines through zerolog.
type cronPrintf struct{}

func (cronPrintf) Printf(format string, v ...interface{}) {
	logger.Debug().Str("component", "cron").Msgf(format, v...)
}

// Scheduler runs periodic maintenance: purging the trash and pruning system
// logs and stale tokens. Each run takes a database lock so that only one
// instance performs it.
type Scheduler struct {
	db       *gorm.DB
	cron     *cron.Cron
	projects *ProjectService
	logs     *SystemLogService
	auth     *AuthService
	cfg      config.TrashConfig
	instance string
	now      func() time.Time
}

func NewScheduler(db *gorm.DB, projects *ProjectService, auth *AuthService, cfg config.TrashConfig) *Scheduler {
	host, _ := os.Hostname()
	cronLogger := cron.PrintfLogger(cronPrintf{})
	return &Scheduler{
		db: db,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		projects: projects,
		logs:     NewSystemLogService(db),
		auth:     auth,
		cfg:      cfg,
		instance: host,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.cfg.RetentionDays > 0 {
		schedule := s.cfg.PurgeSchedule
		if schedule == "" {
			schedule = "0 3 * * *"
		}
		if _, err := s.cron.AddFunc(schedule, func() { s.RunPurge() }); err != nil {
			return err
		}
		logger.Infof("[Scheduler] Trash purge scheduled (cron: %s, retention: %d days)", schedule, s.cfg.RetentionDays)
	} else {
		logger.Infof("[Scheduler] Trash purge disabled (retention_days <= 0)")
	}

	if _, err := s.cron.AddFunc(logCleanupSchedule, s.RunLogCleanup); err != nil {
		return err
	}

	s.cron.Start()
	logger.Infof("[Scheduler] Started")
	return nil
}

// Stop halts the runner and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Shutdown is Stop bounded by ctx.
func (s *Scheduler) Shutdown(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunPurge deletes projects trashed longer than the retention period.
func (s *Scheduler) RunPurge() int64 {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}
	now := s.now()
	if !s.acquireLock(lockTrashPurge, now.Format(models.DateLayout), time.Hour) {
		logger.Debug().Msg("[Scheduler] Trash purge already handled by another instance")
		return 0
	}

	cutoff := now.AddDate(0, 0, -s.cfg.RetentionDays)
	purged, err := s.projects.Purge(cutoff)
	if err != nil {
		logger.Errorf("[Scheduler] Trash purge failed: %v", err)
		LogError("Scheduler", "Purge", "Trash purge failed", nil, "", "", map[string]interface{}{"error": err.Error()})
		return 0
	}

	if purged > 0 {
		logger.Infof("[Scheduler] Purged %d projects trashed before %s", purged, cutoff.Format(time.RFC3339))
		LogInfo("Scheduler", "Purge", "Purged trashed projects", nil, "", "", map[string]interface{}{
			"count":  purged,
			"cutoff": cutoff,
		})
	}
	return purged
}

// RunLogCleanup prunes old system logs and expired tokens.
func (s *Scheduler) RunLogCleanup() {
	now := s.now()
	if !s.acquireLock(lockLogCleanup, now.Format(models.DateLayout), time.Hour) {
		return
	}

	s.logs.RunCleanup(s.cfg.LogRetentionDays)

	if s.auth != nil {
		pruned, err := s.auth.PruneTokens(now)
		if err != nil {
			logger.Errorf("[Scheduler] Token pruning failed: %v", err)
		} else if pruned > 0 {
			logger.Infof("[Scheduler] Pruned %d expired tokens", pruned)
		}
	}
}

// acquireLock claims (name, key) for ttl. An expired claim can be taken over.
func (s *Scheduler) acquireLock(name, key string, ttl time.Duration) bool {
	now := s.now()

	if err := s.db.Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
		Delete(&models.SchedulerLock{}).Error; err != nil {
		logger.Warnf("[Scheduler] Failed to clear expired lock %s/%s: %v", name, key, err)
	}

	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  s.instance,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.db.Create(&lock).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Debug().Err(err).Str("lock", name).Msg("[Scheduler] Lock not acquired")
		}
		return false
	}
	return true
}
