package gesture

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.TravelMin = 2 * time.Millisecond
	cfg.TravelMax = 10 * time.Millisecond
	cfg.SettleMin, cfg.SettleMax = 0, time.Millisecond
	cfg.HoverMin, cfg.HoverMax = 0, time.Millisecond
	cfg.HoldMin, cfg.HoldMax = 0, time.Millisecond
	return cfg
}

func TestPlanPathReproducible(t *testing.T) {
	cfg := DefaultConfig()
	start, end := Point{X: 10, Y: 20}, Point{X: 400, Y: 300}

	a := PlanPath(rand.New(rand.NewSource(42)), cfg, start, end)
	b := PlanPath(rand.New(rand.NewSource(42)), cfg, start, end)
	require.Equal(t, a, b, "same seed must yield the same path")

	c := PlanPath(rand.New(rand.NewSource(43)), cfg, start, end)
	assert.NotEqual(t, a, c)
}

func TestPlanPathProperties(t *testing.T) {
	cfg := DefaultConfig()
	start, end := Point{X: 0, Y: 0}, Point{X: 500, Y: 250}

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		steps := PlanPath(rng, cfg, start, end)

		require.GreaterOrEqual(t, len(steps), cfg.StepsMin)
		require.LessOrEqual(t, len(steps), cfg.StepsMax)

		var total time.Duration
		n := len(steps)
		for i, st := range steps {
			assert.Greater(t, st.Delay, time.Duration(0))
			total += st.Delay

			// Every step stays within jitter distance of the eased ideal.
			tt := float64(i+1) / float64(n)
			u := smoothstep(tt)
			ideal := Point{X: start.X + (end.X-start.X)*u, Y: start.Y + (end.Y-start.Y)*u}
			assert.LessOrEqual(t, math.Abs(st.Pos.X-ideal.X), cfg.JitterPx+1e-9)
			assert.LessOrEqual(t, math.Abs(st.Pos.Y-ideal.Y), cfg.JitterPx+1e-9)
		}

		assert.Equal(t, end, steps[n-1].Pos, "path must terminate exactly on target")
		// Randomized per-step delays stay within [0.5, 1.5] of the even split.
		assert.LessOrEqual(t, total, cfg.TravelMax+cfg.TravelMax/2)
	}
}

// recordingDispatcher captures the event sequence of a gesture.
type recordingDispatcher struct {
	events []string
	moves  []Point
}

func (r *recordingDispatcher) ScrollIntoView(_ context.Context, _ string) error {
	r.events = append(r.events, "scroll")
	return nil
}

func (r *recordingDispatcher) MouseMove(_ context.Context, x, y float64) error {
	r.events = append(r.events, "move")
	r.moves = append(r.moves, Point{X: x, Y: y})
	return nil
}

func (r *recordingDispatcher) MousePress(_ context.Context, _, _ float64) error {
	r.events = append(r.events, "press")
	return nil
}

func (r *recordingDispatcher) MouseRelease(_ context.Context, _, _ float64) error {
	r.events = append(r.events, "release")
	return nil
}

func (r *recordingDispatcher) KeyEscape(_ context.Context) error {
	r.events = append(r.events, "escape")
	return nil
}

func TestClickEventSequence(t *testing.T) {
	disp := &recordingDispatcher{}
	sim := NewWithConfig(disp, rand.New(rand.NewSource(7)), fastConfig())
	bounds := Rect{X: 100, Y: 200, W: 80, H: 40}

	err := sim.Click(context.Background(), `[data-are-ctl="c1"]`, bounds)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(disp.events), 4)
	assert.Equal(t, "scroll", disp.events[0])
	assert.Equal(t, "release", disp.events[len(disp.events)-1])
	assert.Equal(t, "press", disp.events[len(disp.events)-2])
	for _, ev := range disp.events[1 : len(disp.events)-2] {
		assert.Equal(t, "move", ev)
	}

	// The click lands inside the inner 60% of the bounds.
	final := disp.moves[len(disp.moves)-1]
	assert.GreaterOrEqual(t, final.X, bounds.X+bounds.W*0.2)
	assert.LessOrEqual(t, final.X, bounds.X+bounds.W*0.8)
	assert.GreaterOrEqual(t, final.Y, bounds.Y+bounds.H*0.2)
	assert.LessOrEqual(t, final.Y, bounds.Y+bounds.H*0.8)
}

func TestClickCancelled(t *testing.T) {
	disp := &recordingDispatcher{}
	cfg := fastConfig()
	cfg.SettleMin, cfg.SettleMax = 50*time.Millisecond, 60*time.Millisecond
	sim := NewWithConfig(disp, rand.New(rand.NewSource(1)), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sim.Click(ctx, "x", Rect{X: 0, Y: 0, W: 10, H: 10})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, disp.events, "press")
}
