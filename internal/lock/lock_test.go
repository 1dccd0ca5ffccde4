package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAcquireRelease(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "u1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "u1")
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.Acquire(ctx, "u2")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "u1")
	require.NoError(t, err)
	again()
}
