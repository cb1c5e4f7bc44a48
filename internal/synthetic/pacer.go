package synthetic

import (
	"context"
	"math"
	"time"
)

// DefaultMinDelay is the floor between two generated items.
const DefaultMinDelay = 10 * time.Millisecond

// Delay converts a speed multiplier into the pause between items:
// max(floor, 1s/speed). Non-positive, NaN and infinite speeds yield floor.
func Delay(speed float64, floor time.Duration) time.Duration {
	if floor < 0 {
		floor = 0
	}
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return floor
	}

	nanos := float64(time.Second) / speed
	if nanos >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if d := time.Duration(nanos); d > floor {
		return d
	}
	return floor
}

// Pacer spaces out items of one generation run.
type Pacer struct {
	delay time.Duration
}

func NewPacer(speed float64, floor time.Duration) *Pacer {
	return &Pacer{delay: Delay(speed, floor)}
}

// Interval returns the pause applied by Wait.
func (p *Pacer) Interval() time.Duration {
	return p.delay
}

// Wait blocks for the pacing interval or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
