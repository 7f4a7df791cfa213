// internal/pkg/lock/lock_test.go
package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerExclusivity(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "synclock:1:contacts", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "synclock:1:contacts", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)

	// Different keys are independent.
	other, err := l.Acquire(ctx, "synclock:2:contacts", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release2, err := l.Acquire(ctx, "synclock:1:contacts", time.Minute)
	require.NoError(t, err)
	release2()
}

func TestMemoryLockerReleaseIsIdempotent(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	release()
	release() // second call is a no-op

	again, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// The stale double release above must not free the new holder.
	_, err = l.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrHeld)
	again()
}
