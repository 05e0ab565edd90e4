package locator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mkravets/resume-exporter/internal/filename"
	"github.com/mkravets/resume-exporter/internal/logging"
)

// Candidate is one applicant row discovered in the list view. Selector is a
// tagged data-attribute selector valid only until the page re-renders; Path
// is the element's positional path used for containment checks.
type Candidate struct {
	Selector string
	Path     string
	Name     string
	Text     string
}

// candidateRow is the raw snapshot returned by a discovery script.
type candidateRow struct {
	Selector string `json:"selector"`
	Path     string `json:"path"`
	Text     string `json:"text"`
	Name     string `json:"name"`
}

// listStrategy is one rung of the candidate discovery cascade. Strategies
// run in order and the first one producing at least one row wins; later
// strategies are never invoked.
type listStrategy struct {
	name string
	// filterText applies the text-content heuristics to the raw rows.
	filterText bool
	run        func(ctx context.Context, ev Evaluator) ([]candidateRow, error)
}

// Scanner discovers applicant rows in the live document.
type Scanner struct {
	ev         Evaluator
	strategies []listStrategy
	log        zerolog.Logger
}

func NewScanner(ev Evaluator) *Scanner {
	return &Scanner{
		ev:         ev,
		strategies: defaultListStrategies(),
		log:        logging.Get("locator"),
	}
}

// Discover runs the strategy cascade and returns de-duplicated applicant
// rows with extracted display names. A page with no recognizable applicant
// list yields an empty slice, not an error.
func (s *Scanner) Discover(ctx context.Context) ([]Candidate, error) {
	for _, st := range s.strategies {
		rows, err := st.run(ctx, s.ev)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn().Str("strategy", st.name).Err(err).Msg("candidate strategy failed")
			continue
		}
		if st.filterText {
			rows = filterByContent(rows)
		}
		rows = dedupeInnermost(rows)
		if len(rows) == 0 {
			continue
		}
		s.log.Debug().Str("strategy", st.name).Int("count", len(rows)).Msg("candidates found")
		return toCandidates(rows), nil
	}
	return nil, nil
}

// StrategyReport describes one cascade rung's yield during a debug scan.
type StrategyReport struct {
	Name    string
	Matches int
	Samples []string
}

// ScanReport is the diagnostic snapshot returned by DebugScan.
type ScanReport struct {
	Strategies []StrategyReport
}

// DebugScan runs every strategy without short-circuiting, for diagnosing
// which rungs of the cascade still match the current markup.
func (s *Scanner) DebugScan(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{}
	for _, st := range s.strategies {
		rows, err := st.run(ctx, s.ev)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Strategies = append(report.Strategies, StrategyReport{Name: st.name})
			continue
		}
		if st.filterText {
			rows = filterByContent(rows)
		}
		rows = dedupeInnermost(rows)
		sr := StrategyReport{Name: st.name, Matches: len(rows)}
		for i := 0; i < len(rows) && i < 3; i++ {
			text := rows[i].Text
			if len(text) > 120 {
				text = text[:120]
			}
			sr.Samples = append(sr.Samples, text)
		}
		report.Strategies = append(report.Strategies, sr)
	}
	return report, nil
}

func toCandidates(rows []candidateRow) []Candidate {
	out := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, Candidate{
			Selector: r.Selector,
			Path:     r.Path,
			Name:     extractName(r),
			Text:     r.Text,
		})
	}
	return out
}

const (
	minRowTextLen = 20
	maxRowTextLen = 500
)

var (
	// Signals that a text block is an applicant row rather than arbitrary
	// page content: a qualification ratio ("4 of 7"), a connection-degree
	// badge, or the interpunct the UI uses between row fields.
	qualificationRatio = regexp.MustCompile(`\d+\s*(of|/)\s*\d+`)
	degreeBadge        = regexp.MustCompile(`\b(1st|2nd|3rd\+?)\b`)
	fieldSeparator     = "·"

	trailingDecoration = regexp.MustCompile(`(\s*·.*|\s*[✓✔].*|\s+(1st|2nd|3rd\+?)\s*(degree)?\s*(connection)?\s*)$`)
)

// looksLikeApplicantText reports whether s sits inside the empirical text
// window for a list row and carries at least one row-content signal.
func looksLikeApplicantText(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < minRowTextLen || len(s) > maxRowTextLen {
		return false
	}
	return qualificationRatio.MatchString(s) ||
		degreeBadge.MatchString(s) ||
		strings.Contains(s, fieldSeparator)
}

func filterByContent(rows []candidateRow) []candidateRow {
	out := rows[:0]
	for _, r := range rows {
		if looksLikeApplicantText(r.Text) {
			out = append(out, r)
		}
	}
	return out
}

// dedupeInnermost removes any row that is an ancestor of another matched
// row, keeping only the most specific matches. Quadratic over the matches,
// which stay in the tens.
func dedupeInnermost(rows []candidateRow) []candidateRow {
	out := make([]candidateRow, 0, len(rows))
	for i, a := range rows {
		ancestor := false
		for j, b := range rows {
			if i == j {
				continue
			}
			if strings.HasPrefix(b.Path, a.Path+"/") {
				ancestor = true
				break
			}
		}
		if !ancestor {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// extractName prefers the name the discovery script pulled from known
// name-bearing selectors; otherwise the first non-empty line of the row's
// flattened text, stripped of trailing badge decorations.
func extractName(r candidateRow) string {
	raw := strings.TrimSpace(r.Name)
	if raw == "" {
		for _, line := range strings.Split(r.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				raw = line
				break
			}
		}
	}
	raw = strings.TrimSpace(trailingDecoration.ReplaceAllString(raw, ""))
	return filename.Sanitize(raw)
}

// harvestScript tags every collected element with a data attribute so it
// can be re-targeted after discovery, and returns stable snapshots. The
// collection expression is injected per strategy. Tagging-at-discovery
// follows the same approach as evaluating everything in the page's own
// thread: no live node references cross back into Go.
const harvestScript = `(function() {
	const attr = 'data-are-row';
	function pathOf(el) {
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1) {
			let idx = 1;
			let sib = node.previousElementSibling;
			while (sib) {
				if (sib.tagName === node.tagName) idx++;
				sib = sib.previousElementSibling;
			}
			parts.unshift(node.tagName.toLowerCase() + '[' + idx + ']');
			node = node.parentElement;
		}
		return '/' + parts.join('/');
	}
	function nameOf(el) {
		const sel = 'a[href*="/in/"], a[href*="/talent/profile/"], [data-test-applicant-name], h3, h2, strong';
		const n = el.querySelector(sel);
		return n ? (n.textContent || '').trim() : '';
	}
	function visible(el) {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	}
	let collected;
	try {
		collected = (%s);
	} catch (e) {
		return [];
	}
	const rows = [];
	let seq = 0;
	for (const el of collected) {
		if (!el || el.nodeType !== 1 || !visible(el)) continue;
		let id = el.getAttribute(attr);
		if (!id) {
			id = 'r' + (seq++) + '-' + Math.random().toString(36).slice(2, 8);
			el.setAttribute(attr, id);
		}
		rows.push({
			selector: '[' + attr + '="' + id + '"]',
			path: pathOf(el),
			text: (el.innerText || el.textContent || '').trim(),
			name: nameOf(el)
		});
	}
	return rows;
})()`

func harvest(ctx context.Context, ev Evaluator, collectExpr string) ([]candidateRow, error) {
	var rows []candidateRow
	if err := ev.Eval(ctx, fmt.Sprintf(harvestScript, collectExpr), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func defaultListStrategies() []listStrategy {
	return []listStrategy{
		{
			// 1. Exact structural markers the console is known to use.
			name: "exact-markers",
			run: func(ctx context.Context, ev Evaluator) ([]candidateRow, error) {
				return harvest(ctx, ev,
					`Array.from(document.querySelectorAll('li[data-test-applicant-row], [data-view-name*="applicant-list-item"], li.hiring-applicants__list-item'))`)
			},
		},
		{
			// 2. Generic list-item scan, trusted only when the text looks
			// like an applicant row.
			name:       "structural-scan",
			filterText: true,
			run: func(ctx context.Context, ev Evaluator) ([]candidateRow, error) {
				return harvest(ctx, ev, `Array.from(document.querySelectorAll('li'))`)
			},
		},
		{
			// 3. Accessibility roles.
			name: "role-listitem",
			run: func(ctx context.Context, ev Evaluator) ([]candidateRow, error) {
				return harvest(ctx, ev,
					`Array.from(document.querySelectorAll('[role="listitem"], [role="list"] > li'))`)
			},
		},
		{
			// 4. Profile hyperlinks, walking up to the nearest row-like
			// ancestor.
			name: "profile-links",
			run: func(ctx context.Context, ev Evaluator) ([]candidateRow, error) {
				return harvest(ctx, ev,
					`Array.from(document.querySelectorAll('a[href*="/in/"], a[href*="/talent/profile/"]'))
						.map(a => a.closest('li, [role="listitem"]') || a.parentElement)
						.filter(Boolean)`)
			},
		},
		{
			// 5. Landmark heading, a fixed walk up, then a descendant scan
			// reusing the content heuristics.
			name:       "heading-anchored",
			filterText: true,
			run: func(ctx context.Context, ev Evaluator) ([]candidateRow, error) {
				return harvest(ctx, ev,
					`(function() {
						const titles = ['Applicants', 'Candidates', 'Applicants for this job'];
						const heads = Array.from(document.querySelectorAll('h1, h2, h3'));
						const head = heads.find(h => titles.includes((h.textContent || '').trim()));
						if (!head) return [];
						let root = head;
						for (let i = 0; i < 4 && root.parentElement; i++) root = root.parentElement;
						return Array.from(root.querySelectorAll('li, [role="listitem"]'));
					})()`)
			},
		},
	}
}
