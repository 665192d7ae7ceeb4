package jobs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/19taurus79/EridonAPI/internal/config"
	"github.com/19taurus79/EridonAPI/internal/logger"
	"github.com/19taurus79/EridonAPI/internal/session"
)

// SweeperConfig holds configuration for session TTL eviction.
type SweeperConfig struct {
	Schedule string        // cron schedule for the sweep pass
	TTL      time.Duration // idle time after which a session is evicted
	TimeZone string
}

// NewDefaultSweeperConfig reads the sweeper settings from the environment,
// falling back to hourly sweeps and a 24h idle TTL. Sessions accumulate in
// process memory otherwise, so the sweeper is always on.
func NewDefaultSweeperConfig() *SweeperConfig {
	schedule := os.Getenv("SESSION_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultSweepSchedule
	}
	ttlHours := config.DefaultSessionTTLHours
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttlHours = parsed
		}
	}
	return &SweeperConfig{
		Schedule: schedule,
		TTL:      time.Duration(ttlHours) * time.Hour,
		TimeZone: config.DefaultTimeZone,
	}
}

// RunSessionSweeper starts the cron job that evicts idle reconciliation
// sessions. The returned cron is already running; callers stop it on
// shutdown.
func RunSessionSweeper(cfg *SweeperConfig, store *session.Store) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		log.Printf("invalid timezone %s, falling back to UTC: %v", cfg.TimeZone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		evicted := store.Sweep(cfg.TTL)
		if evicted == 0 {
			return
		}
		msg := fmt.Sprintf("Session sweeper evicted %d idle session(s), %d remaining", evicted, store.Len())
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(msg)
		} else {
			log.Println(msg)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule session sweeper: %w", err)
	}
	c.Start()
	log.Printf("Session sweeper scheduled (%s), TTL %s", cfg.Schedule, cfg.TTL)
	return c, nil
}
