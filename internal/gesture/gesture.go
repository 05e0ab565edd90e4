// Package gesture synthesizes human-like pointer interaction: eased
// multi-step movement with endpoint jitter, randomized settle and hold
// times, and a full press/hold/release click sequence. Randomization is
// drawn from an injected source so a gesture is reproducible under test.
package gesture

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// Point is a viewport coordinate.
type Point struct {
	X, Y float64
}

// Rect is a target element's viewport bounds.
type Rect struct {
	X, Y, W, H float64
}

// Step is one pointer movement: wait Delay, then move to Pos.
type Step struct {
	Pos   Point
	Delay time.Duration
}

// Dispatcher sends synthetic input to the page. The chromedp-backed
// implementation lives in cdp.go; tests record calls instead.
type Dispatcher interface {
	ScrollIntoView(ctx context.Context, selector string) error
	MouseMove(ctx context.Context, x, y float64) error
	MousePress(ctx context.Context, x, y float64) error
	MouseRelease(ctx context.Context, x, y float64) error
	KeyEscape(ctx context.Context) error
}

// Config bounds every random draw the simulator makes. All distributions
// are uniform over [Min, Max].
type Config struct {
	StepsMin, StepsMax int

	// Total pointer travel time for one gesture.
	TravelMin, TravelMax time.Duration

	// Pause after scrolling the target into view.
	SettleMin, SettleMax time.Duration

	// Pause while hovering before the press.
	HoverMin, HoverMax time.Duration

	// Button hold between press and release, and the micro-delay after.
	HoldMin, HoldMax time.Duration

	// Peak positional jitter in pixels; strongest at the path endpoints.
	JitterPx float64

	// Distance of the synthetic path's starting point from the target.
	StartOffsetMin, StartOffsetMax float64
}

// DefaultConfig keeps the whole gesture between roughly one and three
// seconds, the window that blends into organic traffic.
func DefaultConfig() Config {
	return Config{
		StepsMin:       14,
		StepsMax:       32,
		TravelMin:      700 * time.Millisecond,
		TravelMax:      2 * time.Second,
		SettleMin:      150 * time.Millisecond,
		SettleMax:      600 * time.Millisecond,
		HoverMin:       80 * time.Millisecond,
		HoverMax:       350 * time.Millisecond,
		HoldMin:        40 * time.Millisecond,
		HoldMax:        140 * time.Millisecond,
		JitterPx:       3,
		StartOffsetMin: 120,
		StartOffsetMax: 320,
	}
}

// Simulator drives a Dispatcher through realistic click gestures.
type Simulator struct {
	cfg  Config
	rng  *rand.Rand
	disp Dispatcher
	log  zerolog.Logger
}

func New(disp Dispatcher, rng *rand.Rand) *Simulator {
	return NewWithConfig(disp, rng, DefaultConfig())
}

func NewWithConfig(disp Dispatcher, rng *rand.Rand, cfg Config) *Simulator {
	return &Simulator{cfg: cfg, rng: rng, disp: disp, log: logging.Get("gesture")}
}

// smoothstep gives the slow-fast-slow velocity profile.
func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// PlanPath computes the intermediate pointer positions and delays from
// start to end. Pure in the rand source: the same source state yields the
// same path. Jitter amplitude peaks at the endpoints and fades mid-path;
// the final step lands exactly on end.
func PlanPath(rng *rand.Rand, cfg Config, start, end Point) []Step {
	n := cfg.StepsMin
	if cfg.StepsMax > cfg.StepsMin {
		n += rng.Intn(cfg.StepsMax - cfg.StepsMin + 1)
	}
	total := durRange(rng, cfg.TravelMin, cfg.TravelMax)
	base := total / time.Duration(n)

	steps := make([]Step, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		u := smoothstep(t)
		pos := Point{
			X: start.X + (end.X-start.X)*u,
			Y: start.Y + (end.Y-start.Y)*u,
		}
		if i < n {
			amp := cfg.JitterPx * (1 - 0.8*math.Sin(math.Pi*t))
			pos.X += (rng.Float64()*2 - 1) * amp
			pos.Y += (rng.Float64()*2 - 1) * amp
		} else {
			pos = end
		}
		delay := time.Duration(float64(base) * (0.5 + rng.Float64()))
		steps = append(steps, Step{Pos: pos, Delay: delay})
	}
	return steps
}

// Click performs the full synthetic gesture against the element: scroll
// into view, settle, travel, hover, press, hold, release. It returns only
// after the release has been dispatched; cancelling ctx is the one way to
// abort a gesture mid-flight.
func (s *Simulator) Click(ctx context.Context, selector string, bounds Rect) error {
	if err := s.disp.ScrollIntoView(ctx, selector); err != nil {
		return err
	}
	if err := s.sleep(ctx, durRange(s.rng, s.cfg.SettleMin, s.cfg.SettleMax)); err != nil {
		return err
	}

	target := s.pointWithin(bounds)
	start := s.startPoint(target)

	for _, step := range PlanPath(s.rng, s.cfg, start, target) {
		if err := s.sleep(ctx, step.Delay); err != nil {
			return err
		}
		if err := s.disp.MouseMove(ctx, step.Pos.X, step.Pos.Y); err != nil {
			return err
		}
	}

	// Hovering: the cursor rests on the target so the page sees its
	// enter/over events before the press.
	if err := s.sleep(ctx, durRange(s.rng, s.cfg.HoverMin, s.cfg.HoverMax)); err != nil {
		return err
	}
	if err := s.disp.MousePress(ctx, target.X, target.Y); err != nil {
		return err
	}
	if err := s.sleep(ctx, durRange(s.rng, s.cfg.HoldMin, s.cfg.HoldMax)); err != nil {
		return err
	}
	if err := s.disp.MouseRelease(ctx, target.X, target.Y); err != nil {
		return err
	}
	return s.sleep(ctx, durRange(s.rng, s.cfg.HoldMin, s.cfg.HoldMax))
}

// PressEscape dispatches a synthetic Escape key, the last-ditch dialog
// dismissal.
func (s *Simulator) PressEscape(ctx context.Context) error {
	return s.disp.KeyEscape(ctx)
}

// pointWithin picks a random point inside the inner 60% of the bounds, so
// the click never lands on the element's very edge.
func (s *Simulator) pointWithin(b Rect) Point {
	return Point{
		X: b.X + b.W*(0.2+0.6*s.rng.Float64()),
		Y: b.Y + b.H*(0.2+0.6*s.rng.Float64()),
	}
}

// startPoint offsets the path origin from the target in a random
// direction, clamped to stay inside the viewport's positive quadrant.
func (s *Simulator) startPoint(target Point) Point {
	dist := s.cfg.StartOffsetMin + (s.cfg.StartOffsetMax-s.cfg.StartOffsetMin)*s.rng.Float64()
	angle := s.rng.Float64() * 2 * math.Pi
	p := Point{
		X: target.X + dist*math.Cos(angle),
		Y: target.Y + dist*math.Sin(angle),
	}
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func durRange(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}
