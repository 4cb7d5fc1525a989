package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking product rows
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultReportCacheTTL is how long computed reports are cached
	DefaultReportCacheTTL = 5 * time.Minute

	// reportPageSize is the page size used when walking the whole catalog
	reportPageSize = 500
)
