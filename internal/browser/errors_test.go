package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBrowserClosed(t *testing.T) {
	assert.False(t, IsBrowserClosed(nil))
	assert.False(t, IsBrowserClosed(errors.New("element not found")))

	assert.True(t, IsBrowserClosed(context.Canceled))
	assert.True(t, IsBrowserClosed(fmt.Errorf("run: %w", context.DeadlineExceeded)))
	assert.True(t, IsBrowserClosed(errors.New("websocket: close 1006 (abnormal closure)")))
	assert.True(t, IsBrowserClosed(errors.New("Target closed")))
}
