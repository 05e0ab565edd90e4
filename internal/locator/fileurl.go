package locator

import (
	"context"
	"fmt"
	"strings"
)

// urlSources groups every place a rendered preview can expose the file URL,
// in resolution order: embedded frames, plugin embeds, object data, anchors
// scoped to an open dialog, then any anchor on the page.
type urlSources struct {
	Frames        []string `json:"frames"`
	Embeds        []string `json:"embeds"`
	Objects       []string `json:"objects"`
	DialogAnchors []string `json:"dialogAnchors"`
	Anchors       []string `json:"anchors"`
}

const fileURLScript = `(function() {
	const src = { frames: [], embeds: [], objects: [], dialogAnchors: [], anchors: [] };
	for (const f of document.querySelectorAll('iframe[src]')) src.frames.push(f.src);
	for (const e of document.querySelectorAll('embed[src]')) src.embeds.push(e.src);
	for (const o of document.querySelectorAll('object[data]')) src.objects.push(o.data);
	const dlg = document.querySelector('[role="dialog"], [class*="modal" i], [class*="overlay" i]');
	if (dlg) {
		for (const a of dlg.querySelectorAll('a[href]')) src.dialogAnchors.push(a.href);
	}
	for (const a of document.querySelectorAll('a[href]')) src.anchors.push(a.href);
	return src;
})()`

// fileMarkers are substrings that mark a URL as a retrievable file: an
// extension, an authentication-token marker, or the media host the console
// serves resumes from.
var fileMarkers = []string{
	".pdf",
	".doc",
	"/dms/",
	"ambry",
	"media.licdn",
	"x-amz-",
	"token=",
	"expires=",
}

// navExclusions reject navigation URLs that would otherwise pass the
// marker check (a profile link with "token=" in its tracking params is
// still not a file).
var navExclusions = []string{
	"javascript:",
	"about:blank",
	"/jobs/",
	"/search",
	"/login",
	"/feed",
	".html",
	"/in/",
}

// LooksLikeFileURL reports whether u passes the file heuristics.
func LooksLikeFileURL(u string) bool {
	l := strings.ToLower(strings.TrimSpace(u))
	if l == "" || strings.HasPrefix(l, "#") {
		return false
	}
	if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") && !strings.HasPrefix(l, "blob:") {
		return false
	}
	for _, ex := range navExclusions {
		if strings.Contains(l, ex) {
			return false
		}
	}
	// Blob URLs are minted by the page for in-memory file data and
	// carry none of the usual path markers.
	if strings.HasPrefix(l, "blob:") {
		return true
	}
	for _, m := range fileMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}

// ResolveFileURL inspects the rendered preview for a downloadable file URL.
// Sources are checked strictly in order and the first passing URL wins; no
// aggregation across sources. Returns ErrNotFound when nothing qualifies.
func ResolveFileURL(ctx context.Context, ev Evaluator) (string, error) {
	var src urlSources
	if err := ev.Eval(ctx, fileURLScript, &src); err != nil {
		return "", fmt.Errorf("collecting url sources: %w", err)
	}
	for _, group := range [][]string{src.Frames, src.Embeds, src.Objects, src.DialogAnchors, src.Anchors} {
		for _, u := range group {
			if LooksLikeFileURL(u) {
				return u, nil
			}
		}
	}
	return "", fmt.Errorf("%w: file url in preview", ErrNotFound)
}
