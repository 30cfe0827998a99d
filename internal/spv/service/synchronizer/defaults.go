package synchronizer

import "time"

const (
	defaultBatchSize      = 100
	defaultMaxRetries     = 3
	defaultBackoffInitial = time.Second
	defaultBackoffMax     = 30 * time.Second
	defaultPollInterval   = 30 * time.Second
)
