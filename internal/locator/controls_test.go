package locator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindControlFirstStrategyWins(t *testing.T) {
	ev := &mockEvaluator{handler: func(script string, out any) error {
		res := out.(*controlResult)
		if strings.Contains(script, "data-test-resume-download") {
			*res = controlResult{Found: true, Control: Control{Selector: `[data-are-ctl="c1"]`, X: 10, Y: 20, W: 80, H: 30}}
		}
		return nil
	}}

	ctrl, err := FindControl(context.Background(), ev, DownloadTriggerSpec(), time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, `[data-are-ctl="c1"]`, ctrl.Selector)
	assert.Len(t, ev.calls, 1)
}

func TestFindControlPollsUntilFound(t *testing.T) {
	polls := 0
	ev := &mockEvaluator{handler: func(script string, out any) error {
		res := out.(*controlResult)
		if strings.Contains(script, "data-test-resume-preview") {
			polls++
			if polls >= 3 {
				*res = controlResult{Found: true, Control: Control{Selector: "s", X: 1, Y: 1, W: 10, H: 10}}
			}
		}
		return nil
	}}

	ctrl, err := FindControl(context.Background(), ev, PreviewTriggerSpec(), time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "s", ctrl.Selector)
	assert.Equal(t, 3, polls)
}

func TestFindControlTimeout(t *testing.T) {
	ev := &mockEvaluator{handler: func(_ string, _ any) error { return nil }}

	_, err := FindControl(context.Background(), ev, PreviewTriggerSpec(), 30*time.Millisecond, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindControlContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ev := &mockEvaluator{handler: func(_ string, _ any) error {
		cancel()
		return nil
	}}

	_, err := FindControl(ctx, ev, PreviewTriggerSpec(), time.Minute, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindControlIgnoresStrategyErrors(t *testing.T) {
	ev := &mockEvaluator{handler: func(script string, out any) error {
		if strings.Contains(script, "data-test-resume-download") {
			return errors.New("evaluation blew up")
		}
		res := out.(*controlResult)
		if strings.Contains(script, `class*="download" i`) {
			*res = controlResult{Found: true, Control: Control{Selector: "fallback", X: 0, Y: 0, W: 5, H: 5}}
		}
		return nil
	}}

	ctrl, err := FindControl(context.Background(), ev, DownloadTriggerSpec(), time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "fallback", ctrl.Selector)
}

func TestFindControlRejectsZeroSizedMatch(t *testing.T) {
	ev := &mockEvaluator{handler: func(script string, out any) error {
		res := out.(*controlResult)
		if strings.Contains(script, "data-test-resume-download") {
			*res = controlResult{Found: true, Control: Control{Selector: "hidden", W: 0, H: 0}}
		}
		return nil
	}}

	_, err := FindControl(context.Background(), ev, DownloadTriggerSpec(), 20*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)
}
