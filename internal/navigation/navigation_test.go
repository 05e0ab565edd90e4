package navigation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	stepPause = time.Millisecond
}

// scrollEvaluator simulates a page whose scroll position advances a fixed
// number of times and then sticks.
type scrollEvaluator struct {
	pos     float64
	limit   float64
	calls   int
	topHits int
}

func (s *scrollEvaluator) Eval(_ context.Context, script string, out any) error {
	s.calls++
	f := out.(*float64)
	if strings.Contains(script, "scrollTo(0, 0)") {
		s.topHits++
		s.pos = 0
		*f = 0
		return nil
	}
	s.pos += 600
	if s.pos > s.limit {
		s.pos = s.limit
	}
	*f = s.pos
	return nil
}

func TestPrimeListStopsWhenScrollSticks(t *testing.T) {
	ev := &scrollEvaluator{limit: 1800}

	require.NoError(t, PrimeList(context.Background(), ev))

	// 1800/600 = 3 advancing steps, one sticking step, one scroll-to-top.
	assert.Equal(t, 5, ev.calls)
	assert.Equal(t, 1, ev.topHits)
	assert.Equal(t, float64(0), ev.pos, "must return to the top")
}

func TestPrimeListBoundedOnEndlessList(t *testing.T) {
	ev := &scrollEvaluator{limit: 1 << 30}

	require.NoError(t, PrimeList(context.Background(), ev))
	assert.LessOrEqual(t, ev.calls, maxPrimeSteps+1)
}
