// internal/humanoid/pacer.go
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/xkilldash9x/autoentry/internal/config"
)

// Sleeper pauses for a duration, returning early with the context's error.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// timerSleeper waits on a real timer.
type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer inserts human-like pauses between page interactions. Each pause is drawn
// uniformly from a closed delay range.
type Pacer struct {
	mu      sync.Mutex
	rng     *rand.Rand
	sleeper Sleeper
}

// NewPacer creates a pacer. A nil rng gets a time-seeded source; a nil sleeper waits on real timers.
func NewPacer(rng *rand.Rand, sleeper Sleeper) *Pacer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if sleeper == nil {
		sleeper = timerSleeper{}
	}
	return &Pacer{rng: rng, sleeper: sleeper}
}

// Duration draws a pause from the range. Inverted bounds are normalized first.
func (p *Pacer) Duration(r config.DelayRange) time.Duration {
	r = r.Normalized()
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	jitter := p.rng.Int63n(int64(r.Max-r.Min) + 1)
	p.mu.Unlock()
	return r.Min + time.Duration(jitter)
}

// Pause sleeps for a duration drawn from the range.
func (p *Pacer) Pause(ctx context.Context, r config.DelayRange) error {
	return p.sleeper.Sleep(ctx, p.Duration(r))
}

// Sleep waits for exactly d, honoring ctx.
func (p *Pacer) Sleep(ctx context.Context, d time.Duration) error {
	return p.sleeper.Sleep(ctx, d)
}
