// internal/humanoid/pacer_test.go
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/autoentry/internal/config"
)

type recordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slept = append(r.slept, d)
	return ctx.Err()
}

func TestPacer_DurationWithinBounds(t *testing.T) {
	p := NewPacer(rand.New(rand.NewSource(42)), &recordingSleeper{})
	r := config.DelayRange{Min: 400 * time.Millisecond, Max: time.Second}

	for i := 0; i < 500; i++ {
		d := p.Duration(r)
		require.GreaterOrEqual(t, d, r.Min)
		require.LessOrEqual(t, d, r.Max)
	}
}

func TestPacer_InvertedBoundsAreNormalized(t *testing.T) {
	p := NewPacer(rand.New(rand.NewSource(7)), nil)
	r := config.DelayRange{Min: time.Second, Max: 200 * time.Millisecond}

	for i := 0; i < 100; i++ {
		d := p.Duration(r)
		require.GreaterOrEqual(t, d, 200*time.Millisecond)
		require.LessOrEqual(t, d, time.Second)
	}
}

func TestPacer_ZeroRangeNeverSleeps(t *testing.T) {
	sleeper := &recordingSleeper{}
	p := NewPacer(nil, sleeper)

	require.NoError(t, p.Pause(context.Background(), config.DelayRange{}))
	assert.Equal(t, []time.Duration{0}, sleeper.slept)
}

func TestTimerSleeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := timerSleeper{}.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, timerSleeper{}.Sleep(context.Background(), time.Millisecond))
}
