package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/dogeorg/dogewifi/pkg/utils/utilstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollExhaustsBudget(t *testing.T) {
	clock := utilstest.NewManualClock()
	b := utils.Budget{Interval: 500 * time.Millisecond, Timeout: 20 * time.Second, Clock: clock}

	attempts, done, err := b.Poll(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	})

	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 40, attempts)
	assert.LessOrEqual(t, clock.Elapsed(), 20*time.Second)
}

func TestPollStopsWhenDone(t *testing.T) {
	clock := utilstest.NewManualClock()
	b := utils.Budget{Interval: 200 * time.Millisecond, Timeout: 5 * time.Second, Clock: clock}

	calls := 0
	attempts, done, err := b.Poll(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})

	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 400*time.Millisecond, clock.Elapsed())
}

func TestPollZeroTimeoutChecksOnce(t *testing.T) {
	b := utils.Budget{Interval: time.Second, Clock: utilstest.NewManualClock()}

	attempts, done, err := b.Poll(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	})

	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, attempts)
}

func TestPollCheckErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	b := utils.Budget{Interval: time.Second, Timeout: time.Minute, Clock: utilstest.NewManualClock()}

	attempts, _, err := b.Poll(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestPollCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := utils.Budget{Interval: time.Second, Timeout: time.Minute, Clock: utilstest.NewManualClock()}

	attempts, done, err := b.Poll(ctx, func(context.Context) (bool, error) {
		cancel()
		return false, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, done)
	assert.Equal(t, 1, attempts)
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "iwconfig wlan0 essid off", utils.CommandLine("iwconfig", "wlan0", "essid", "off"))
	assert.Equal(t, "true", utils.CommandLine("true"))
}
