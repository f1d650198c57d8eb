// Package abuse gates submissions before they reach the CRM. The guard
// combines captcha verification with a per-client submission rate limit.
package abuse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadhook_backend/internal/captcha"
	"leadhook_backend/internal/ratelimit"
	"leadhook_backend/platform/apperr"
	"leadhook_backend/platform/logger"
)

// Forms submitted by the site's own chat bot carry no captcha token and
// are exempt from rate limiting.
const botFormName = "ai chat"

// Verdict is the outcome of an admission check. A rate-limited verdict is
// a soft rejection: the caller answers politely instead of failing.
type Verdict struct {
	Allowed     bool
	RateLimited bool
	MinutesLeft int
	Message     string
}

var admitted = Verdict{Allowed: true}

type Guard struct {
	verifier captcha.Verifier
	store    ratelimit.Store
	window   time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewGuard creates the admission guard. A nil verifier disables captcha
// checking; a nil store disables rate limiting.
func NewGuard(verifier captcha.Verifier, store ratelimit.Store, window time.Duration, log *logger.Logger) *Guard {
	return &Guard{
		verifier: verifier,
		store:    store,
		window:   window,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source (used in tests).
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Admit runs the captcha check and then the rate limit. Captcha failures
// are hard rejections; an exhausted rate limit returns a soft verdict.
func (g *Guard) Admit(ctx context.Context, formName, token, clientIP string) (Verdict, error) {
	if strings.EqualFold(strings.TrimSpace(formName), botFormName) {
		return admitted, nil
	}

	if g.verifier != nil {
		if token == "" {
			return Verdict{}, apperr.Forbidden("captcha token is required")
		}
		ok, err := g.verifier.Verify(ctx, token, clientIP)
		if err != nil {
			g.log.UpstreamError("turnstile", "verify", err)
			return Verdict{}, apperr.Forbidden("captcha verification failed")
		}
		if !ok {
			return Verdict{}, apperr.Forbidden("captcha verification failed")
		}
	}

	return g.checkRateLimit(ctx, clientIP), nil
}

// checkRateLimit consults the store. Store errors and a missing client IP
// fail open: losing the limiter must not lose leads.
func (g *Guard) checkRateLimit(ctx context.Context, clientIP string) Verdict {
	if g.store == nil {
		return admitted
	}
	if clientIP == "" {
		g.log.Warn("rate limit skipped, client ip unknown")
		return admitted
	}

	now := g.now()

	last, found, err := g.store.LastSubmit(ctx, clientIP)
	if err != nil {
		g.log.Warn("rate limit lookup failed", "error", err)
		return admitted
	}

	if found {
		elapsed := now.Sub(last)
		if elapsed < g.window {
			minutesLeft := int((g.window - elapsed + time.Minute - 1) / time.Minute)
			g.log.RateLimitExceeded(clientIP, minutesLeft)
			return Verdict{
				RateLimited: true,
				MinutesLeft: minutesLeft,
				Message: fmt.Sprintf(
					"Вы уже отправляли заявку недавно. Можно отправлять не более 1 заявки в час. Попробуйте через %d мин.",
					minutesLeft),
			}
		}
	}

	if err := g.store.Record(ctx, clientIP, now, 2*g.window); err != nil {
		g.log.Warn("rate limit record failed", "error", err)
	}
	return admitted
}
