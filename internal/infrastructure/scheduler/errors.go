package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobNotFound is returned when a job name is not registered
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when registering a name twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrJobAlreadyRunning is returned when a manual trigger overlaps a running job
	ErrJobAlreadyRunning = errors.New("job already running")

	// ErrInvalidSchedule is returned when a cron expression cannot be parsed
	ErrInvalidSchedule = errors.New("invalid job schedule")
)
