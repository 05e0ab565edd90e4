// Package auth verifies the hiring console session and waits for manual
// login when there is none. Credentials are never handled here; the user
// signs in themselves in the visible browser window.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mkravets/resume-exporter/internal/browser"
	"github.com/mkravets/resume-exporter/internal/logging"
)

const (
	// LoginCheckInterval is how often to re-check while waiting for the
	// user to sign in.
	LoginCheckInterval = 10 * time.Second
	// LoginTimeout bounds the manual-login wait.
	LoginTimeout = 5 * time.Minute
)

const loginPageScript = `(function() {
	const pageText = document.body ? document.body.innerText : '';
	const indicators = [
		pageText.includes('Sign in'),
		pageText.includes('Join now'),
		pageText.includes('Forgot password'),
		!!document.querySelector('input[name="session_key"]'),
		!!document.querySelector('input[autocomplete="username"]'),
		!!document.querySelector('form[action*="login"]'),
		!!document.querySelector('form[action*="checkpoint"]'),
		!!document.querySelector('.authwall'),
		!!document.querySelector('[data-test-id="guest-homepage"]')
	];
	return indicators.some(i => i === true);
})()`

const consoleElementsScript = `(function() {
	const indicators = [
		!!document.querySelector('.global-nav'),
		!!document.querySelector('[data-test-global-nav]'),
		!!document.querySelector('img.global-nav__me-photo'),
		!!document.querySelector('[class*="hiring"]'),
		!!document.querySelector('[class*="applicant"]'),
		!!document.querySelector('a[href*="/talent/"]'),
		!!document.querySelector('[role="navigation"]')
	];
	return indicators.filter(i => i === true).length >= 2;
})()`

// CheckLoginStatus reports whether the current tab holds a signed-in
// hiring console session.
func CheckLoginStatus(ctx context.Context) (bool, error) {
	log := logging.Get("auth")

	url, err := browser.GetCurrentURL(ctx)
	if err != nil {
		return false, fmt.Errorf("could not get current URL: %w", err)
	}

	// An auth-wall or checkpoint URL settles it immediately.
	for _, marker := range []string{"/login", "/checkpoint", "/authwall", "/uas/"} {
		if strings.Contains(url, marker) {
			log.Info().Str("url", url).Msg("login page detected")
			return false, nil
		}
	}

	var isLoginPage bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(loginPageScript, &isLoginPage)); err != nil {
		return false, fmt.Errorf("could not check login elements: %w", err)
	}
	if isLoginPage {
		log.Info().Msg("login form elements detected")
		return false, nil
	}

	var hasConsole bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(consoleElementsScript, &hasConsole)); err != nil {
		// URL looked fine and no login form was present; assume the
		// session is alive rather than block on a transient eval error.
		log.Warn().Err(err).Msg("could not verify console elements")
		return true, nil
	}
	if hasConsole {
		log.Debug().Msg("hiring console elements detected")
		return true, nil
	}

	log.Info().Msg("could not confirm login status, page may still be loading")
	return false, nil
}

// WaitForLogin polls until the user completes login or the timeout lapses.
func WaitForLogin(ctx context.Context) error {
	log := logging.Get("auth")
	log.Warn().Msg("not logged in; please sign in to the hiring console in the browser window")
	log.Info().Dur("interval", LoginCheckInterval).Dur("timeout", LoginTimeout).Msg("waiting for login")

	deadline := time.After(LoginTimeout)
	ticker := time.NewTicker(LoginCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("login timeout: no session after %v", LoginTimeout)
		case <-ticker.C:
			loggedIn, err := CheckLoginStatus(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("login check failed")
				continue
			}
			if loggedIn {
				log.Info().Msg("login detected")
				return nil
			}
			log.Debug().Msg("still waiting for login")
		}
	}
}
