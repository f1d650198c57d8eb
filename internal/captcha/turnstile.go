// Package captcha provides Cloudflare Turnstile token verification.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadhook_backend/platform/logger"
)

const defaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a challenge token issued to the submitting client.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Turnstile verifies tokens against the Cloudflare siteverify endpoint.
type Turnstile struct {
	secret   string
	endpoint string
	http     *http.Client
	log      *logger.Logger
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstile creates a verifier. Returns nil when no secret is
// configured, which disables captcha checking entirely.
func NewTurnstile(secret string, timeout time.Duration, log *logger.Logger) *Turnstile {
	if secret == "" {
		return nil
	}
	return &Turnstile{
		secret:   secret,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// WithEndpoint overrides the verification endpoint (used in tests).
func (t *Turnstile) WithEndpoint(endpoint string) *Turnstile {
	t.endpoint = endpoint
	return t
}

// Verify posts the token to the siteverify endpoint. Any transport or
// decode error counts as verification failure: the guard fails closed.
func (t *Turnstile) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", t.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("turnstile request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("turnstile response decode failed: %w", err)
	}

	if !result.Success && t.log != nil {
		t.log.Warn("turnstile verification failed", "error_codes", strings.Join(result.ErrorCodes, ","))
	}
	return result.Success, nil
}
