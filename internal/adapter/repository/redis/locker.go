package redis

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iho/assetledger/internal/usecase"
)

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockBusy = errors.New("lock busy")

// Locker implements usecase.Locker with SET NX PX so that posting for an
// entity and period is serialized across server instances.
type Locker struct {
	client      redis.UniversalClient
	prefix      string
	maxInterval time.Duration
}

// NewLocker creates a new Locker.
func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{
		client:      client,
		prefix:      "assetledger:lock:",
		maxInterval: 200 * time.Millisecond,
	}
}

// Lock polls for key with exponential backoff until it is acquired or ctx is
// done. The ttl bounds how long a crashed holder keeps the key.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := l.prefix + key
	token := ulid.Make().String()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = l.maxInterval
	b.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(usecase.ErrLockHeld)
			}
			return backoff.Permanent(err)
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if errors.Is(err, errLockBusy) || ctx.Err() != nil {
			return nil, usecase.ErrLockHeld
		}
		return nil, err
	}

	unlock := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}
	return unlock, nil
}
