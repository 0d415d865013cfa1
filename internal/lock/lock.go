// Package lock serializes work per key, in process or across replicas.
package lock

import (
	"context"
	"strconv"
)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// Locker hands out exclusive locks by key. Lock blocks until the lock is
// held or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// UserKey is the lock key of one Telegram identity.
func UserKey(telegramID int64) string {
	return "user:" + strconv.FormatInt(telegramID, 10)
}
