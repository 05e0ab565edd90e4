package locator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a timed poll exhausts every strategy without
// locating the requested control. Callers treat it as skip-this-candidate,
// never as fatal.
var ErrNotFound = errors.New("locator: control not found")

const (
	// DefaultControlTimeout bounds how long a single control is polled for.
	DefaultControlTimeout = 10 * time.Second
	// DefaultPollInterval is the fixed spacing between poll attempts.
	DefaultPollInterval = 500 * time.Millisecond
)

// Control is a located, clickable element with its viewport geometry.
type Control struct {
	Selector string  `json:"selector"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
}

// controlResult is the raw result of one control-strategy script.
type controlResult struct {
	Found bool `json:"found"`
	Control
}

// ControlStrategy is one rung of a single-control lookup. Its script must
// evaluate to {found, selector, x, y, w, h}.
type ControlStrategy struct {
	Name   string
	Script string
}

// ControlSpec names a control and the ordered strategies that can find it.
type ControlSpec struct {
	Name       string
	Strategies []ControlStrategy
}

// FindControl polls spec.Strategies at a fixed interval until one
// matches or the deadline passes. The context cancels the wait between
// polls; exhaustion returns ErrNotFound.
func FindControl(ctx context.Context, ev Evaluator, spec ControlSpec, timeout, interval time.Duration) (*Control, error) {
	if timeout <= 0 {
		timeout = DefaultControlTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		for _, st := range spec.Strategies {
			var res controlResult
			if err := ev.Eval(ctx, st.Script, &res); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			if res.Found && res.W > 0 && res.H > 0 {
				c := res.Control
				return &c, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s after %v", ErrNotFound, spec.Name, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// controlProbe wraps a finder expression in the shared tag-and-snapshot
// logic: the element is marked with a data attribute so later actions can
// re-target it by selector, and its center geometry is returned.
func controlProbe(finderExpr string) string {
	return fmt.Sprintf(`(function() {
	const attr = 'data-are-ctl';
	function visible(el) {
		if (!el || el.nodeType !== 1) return false;
		const r = el.getBoundingClientRect();
		const s = window.getComputedStyle(el);
		return r.width > 0 && r.height > 0 && s.display !== 'none' && s.visibility !== 'hidden';
	}
	let el;
	try {
		el = (%s);
	} catch (e) {
		el = null;
	}
	if (!visible(el)) return { found: false };
	let id = el.getAttribute(attr);
	if (!id) {
		id = 'c' + Date.now() + '-' + Math.random().toString(36).slice(2, 8);
		el.setAttribute(attr, id);
	}
	const r = el.getBoundingClientRect();
	return {
		found: true,
		selector: '[' + attr + '="' + id + '"]',
		x: r.left, y: r.top, w: r.width, h: r.height
	};
})()`, finderExpr)
}

// byTextProbe returns a probe matching a button-like leaf whose trimmed
// text equals one of the labels.
func byTextProbe(labels ...string) string {
	quoted := jsStringArray(labels)
	return controlProbe(fmt.Sprintf(`(function() {
		const labels = %s;
		for (const el of document.querySelectorAll('button, [role="button"], a')) {
			const t = (el.textContent || '').trim();
			if (labels.includes(t)) return el;
		}
		return null;
	})()`, quoted))
}

// byAriaProbe matches on accessible labels, case-insensitive substring.
func byAriaProbe(fragments ...string) string {
	quoted := jsStringArray(fragments)
	return controlProbe(fmt.Sprintf(`(function() {
		const frags = %s.map(f => f.toLowerCase());
		for (const el of document.querySelectorAll('[aria-label], [title]')) {
			const label = ((el.getAttribute('aria-label') || '') + ' ' + (el.getAttribute('title') || '')).toLowerCase();
			if (frags.some(f => label.includes(f))) return el;
		}
		return null;
	})()`, quoted))
}

func jsStringArray(items []string) string {
	out := "["
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q", s)
	}
	return out + "]"
}

// PreviewTriggerSpec locates the control that opens the resume preview.
func PreviewTriggerSpec() ControlSpec {
	return ControlSpec{
		Name: "resume-preview trigger",
		Strategies: []ControlStrategy{
			{"exact-marker", controlProbe(
				`document.querySelector('[data-test-resume-preview], [data-view-name*="resume"], button[data-test-view-resume]')`)},
			{"partial-marker", controlProbe(
				`document.querySelector('[class*="resume" i] button, button[class*="resume" i], a[class*="resume" i]')`)},
			{"icon-ancestor", controlProbe(
				`(function() {
					const icon = document.querySelector('svg[data-test-icon*="document"], li-icon[type*="document"], [class*="document-icon"]');
					return icon ? icon.closest('button, a, [role="button"]') : null;
				})()`)},
			{"leaf-text", byTextProbe("View resume", "Resume", "Show resume", "See resume")},
			{"aria-label", byAriaProbe("resume", "view resume")},
			{"hyperlink", controlProbe(
				`document.querySelector('a[href*="resume"]')`)},
		},
	}
}

// DownloadTriggerSpec locates the control that starts the file transfer
// from an open preview.
func DownloadTriggerSpec() ControlSpec {
	return ControlSpec{
		Name: "download trigger",
		Strategies: []ControlStrategy{
			{"exact-marker", controlProbe(
				`document.querySelector('[data-test-resume-download], button[data-test-download], [data-view-name*="download"]')`)},
			{"partial-marker", controlProbe(
				`document.querySelector('button[class*="download" i], a[class*="download" i]')`)},
			{"icon-ancestor", controlProbe(
				`(function() {
					const icon = document.querySelector('svg[data-test-icon*="download"], li-icon[type*="download"], [class*="download-icon"]');
					return icon ? icon.closest('button, a, [role="button"]') : null;
				})()`)},
			{"leaf-text", byTextProbe("Download", "Download resume", "Save")},
			{"aria-label", byAriaProbe("download")},
			{"hyperlink", controlProbe(
				`document.querySelector('a[download], a[href*="download"]')`)},
		},
	}
}

// DismissSpec locates a control that closes an open preview dialog. The
// synthetic Escape key is the caller's last resort, not part of this spec.
func DismissSpec() ControlSpec {
	return ControlSpec{
		Name: "preview dismiss",
		Strategies: []ControlStrategy{
			{"leaf-text", byTextProbe("Close", "Dismiss", "×", "X")},
			{"aria-label", byAriaProbe("close", "dismiss")},
			{"dialog-scoped", controlProbe(
				`(function() {
					const dlg = document.querySelector('[role="dialog"], [class*="modal" i], [class*="overlay" i]');
					return dlg ? dlg.querySelector('button[aria-label], button[class*="close" i], button[class*="dismiss" i]') : null;
				})()`)},
		},
	}
}
