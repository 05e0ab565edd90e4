// Package locator finds applicant rows and named controls in the hiring
// console's DOM through ordered heuristic strategies. The markup is
// unversioned third-party UI, so every lookup here is best-effort: a
// strategy that finds nothing is silently followed by the next one.
package locator

import (
	"context"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Evaluator runs a JavaScript expression in the page and decodes the
// by-value result into out. Tests substitute a synthetic implementation.
type Evaluator interface {
	Eval(ctx context.Context, script string, out any) error
}

// PageEvaluator evaluates against a live chromedp tab context.
type PageEvaluator struct{}

func NewPageEvaluator() *PageEvaluator {
	return &PageEvaluator{}
}

// Eval runs script silently, awaiting promises and returning by value so
// the result is a stable snapshot rather than a live object reference.
func (PageEvaluator) Eval(ctx context.Context, script string, out any) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
}
