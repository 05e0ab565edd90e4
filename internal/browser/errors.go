package browser

import (
	"context"
	"errors"
	"strings"
)

// IsBrowserClosed reports whether err indicates the user closed the browser
// (or the connection to it died). Callers use it to turn a mid-run crash
// into a clean stop.
func IsBrowserClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	closedPatterns := []string{
		"context canceled",
		"context deadline exceeded",
		"websocket: close",
		"target closed",
		"browser: not connected",
		"session closed",
		"page closed",
		"connection refused",
		"broken pipe",
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range closedPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
