package synthetic

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay(t *testing.T) {
	floor := 10 * time.Millisecond

	tests := []struct {
		name  string
		speed float64
		want  time.Duration
	}{
		{"normal speed", 1, time.Second},
		{"fast", 4, 250 * time.Millisecond},
		{"max range", 20, 50 * time.Millisecond},
		{"slow", 0.5, 2 * time.Second},
		{"faster than floor", 1000, floor},
		{"zero", 0, floor},
		{"negative", -3, floor},
		{"nan", math.NaN(), floor},
		{"positive infinity", math.Inf(1), floor},
		{"negative infinity", math.Inf(-1), floor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Delay(tt.speed, floor)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, floor)
		})
	}
}

func TestDelayDoesNotOverflow(t *testing.T) {
	assert.Equal(t, time.Duration(math.MaxInt64), Delay(1e-300, time.Millisecond))
}

func TestDelayNegativeFloor(t *testing.T) {
	assert.Equal(t, time.Duration(0), Delay(0, -time.Second))
}

func TestPacerWaitHonoursCancellation(t *testing.T) {
	p := NewPacer(0.001, time.Millisecond)
	assert.Equal(t, 1000*time.Second, p.Interval())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerWaitSleeps(t *testing.T) {
	p := NewPacer(100, time.Millisecond)

	start := time.Now()
	assert.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
