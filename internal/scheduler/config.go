package scheduler

import (
	"time"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval       time.Duration
	QuoteBatchSize    int
	SnapshotBatchSize int
	// EnabledJobs limits the scheduler to the named jobs. Empty means
	// every job runs (monolith mode).
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:       time.Minute,
		QuoteBatchSize:    100,
		SnapshotBatchSize: 50,
	}
}

func ProvideConfig() Config {
	return DefaultConfig()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.QuoteBatchSize <= 0 {
		c.QuoteBatchSize = defaults.QuoteBatchSize
	}
	if c.SnapshotBatchSize <= 0 {
		c.SnapshotBatchSize = defaults.SnapshotBatchSize
	}
	return c
}
