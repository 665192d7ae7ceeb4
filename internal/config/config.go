package config

const (
	DefaultTimeZone = "Europe/Kyiv"

	// Session eviction defaults; overridable via SESSION_SWEEP_SCHEDULE and
	// SESSION_TTL_HOURS.
	DefaultSweepSchedule   = "0 * * * *"
	DefaultSessionTTLHours = 24

	// Upload processing
	DefaultUploadWorkers = 4
	MaxUploadBytes       = 32 << 20
)
