package usecase

import (
	"errors"
	"time"

	"github.com/iho/assetledger/internal/domain"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultLockTTL bounds how long a posting lock survives a crashed holder.
	DefaultLockTTL = 30 * time.Second

	// DefaultScheduleCacheTTL is how long computed schedules stay cached.
	DefaultScheduleCacheTTL = 10 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// payablesLockKey and projectsLockKey serialize workspace read-modify-write.
	payablesLockKey = "payables"
	projectsLockKey = "projects"
)

var (
	// ErrCacheMiss is returned by Cache.Get when the key is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrLockHeld is returned when a lock could not be acquired in time.
	ErrLockHeld = errors.New("lock held by another worker")
)

func postingLockKey(entity string, period domain.Period) string {
	return "posting:" + entity + "|" + period.String()
}
