// Package intercept installs an explicit, scoped capture hook in the page
// context. Instead of letting the console open the single-use download URL
// in a window the automation can't see, the hook records the URL for
// exactly one consumer and is torn down between uses. It also performs the
// in-page authenticated fetch, the only place the session's credentials
// reliably apply.
package intercept

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/logging"
)

// Evaluator runs a script in the page. Satisfied by locator.PageEvaluator.
type Evaluator interface {
	Eval(ctx context.Context, script string, out any) error
}

// Hook is the armed window.open interceptor for one tab.
type Hook struct {
	ev  Evaluator
	log zerolog.Logger
}

func New(ev Evaluator) *Hook {
	return &Hook{ev: ev, log: logging.Get("intercept")}
}

const armScript = `(function() {
	if (window.__areHook) { window.__areHook.url = null; return true; }
	window.__areHook = { orig: window.open, url: null };
	window.open = function(u) {
		try { window.__areHook.url = String(u || ''); } catch (e) {}
		return null;
	};
	return true;
})()`

const readScript = `(function() {
	const h = window.__areHook;
	if (!h || !h.url) return "";
	const u = h.url;
	h.url = null;
	return u;
})()`

const disarmScript = `(function() {
	const h = window.__areHook;
	if (!h) return true;
	window.open = h.orig;
	delete window.__areHook;
	return true;
})()`

// Arm installs the window.open wrapper, resetting any previously captured
// URL so each candidate starts clean.
func (h *Hook) Arm(ctx context.Context) error {
	var ok bool
	if err := h.ev.Eval(ctx, armScript, &ok); err != nil {
		return fmt.Errorf("arming intercept hook: %w", err)
	}
	return nil
}

// ReadAndClear consumes the captured URL at most once: a second read after
// a capture returns ok=false until the hook captures again.
func (h *Hook) ReadAndClear(ctx context.Context) (string, bool, error) {
	var u string
	if err := h.ev.Eval(ctx, readScript, &u); err != nil {
		return "", false, fmt.Errorf("reading intercept hook: %w", err)
	}
	return u, u != "", nil
}

// Disarm restores the original window.open.
func (h *Hook) Disarm(ctx context.Context) error {
	var ok bool
	if err := h.ev.Eval(ctx, disarmScript, &ok); err != nil {
		return fmt.Errorf("disarming intercept hook: %w", err)
	}
	return nil
}

// fetchResult is the structured reply from the in-page fetch.
type fetchResult struct {
	Ok    bool   `json:"ok"`
	Data  string `json:"data"`
	Error string `json:"error"`
}

const fetchScript = `(async function() {
	try {
		const resp = await fetch(%q, { credentials: 'include' });
		if (!resp.ok) return { ok: false, data: '', error: 'status ' + resp.status };
		const buf = await resp.arrayBuffer();
		const bytes = new Uint8Array(buf);
		let bin = '';
		const chunk = 0x8000;
		for (let i = 0; i < bytes.length; i += chunk) {
			bin += String.fromCharCode.apply(null, bytes.subarray(i, i + chunk));
		}
		return { ok: true, data: btoa(bin), error: '' };
	} catch (e) {
		return { ok: false, data: '', error: String(e) };
	}
})()`

// FetchBytes retrieves the URL from inside the page with the session's
// credentials and returns the raw bytes. A non-2xx status or a thrown
// fetch error comes back as a normal error for the caller's fallback
// chain.
func (h *Hook) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var res fetchResult
	if err := h.ev.Eval(ctx, fmt.Sprintf(fetchScript, url), &res); err != nil {
		return nil, fmt.Errorf("in-page fetch: %w", err)
	}
	if !res.Ok {
		return nil, fmt.Errorf("in-page fetch failed: %s", res.Error)
	}
	data, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding fetched body: %w", err)
	}
	h.log.Debug().Str("url", url).Int("bytes", len(data)).Msg("in-page fetch complete")
	return data, nil
}
