package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadhook_backend/platform/logger"
)

func TestNewTurnstile_NilWithoutSecret(t *testing.T) {
	if v := NewTurnstile("", time.Second, nil); v != nil {
		t.Fatal("expected nil verifier when no secret is configured")
	}
}

func TestVerify_PostsFormAndReadsSuccess(t *testing.T) {
	var gotToken, gotSecret, gotIP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotSecret = r.PostFormValue("secret")
		gotToken = r.PostFormValue("response")
		gotIP = r.PostFormValue("remoteip")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	v := NewTurnstile("shh", time.Second, logger.New("development")).WithEndpoint(srv.URL)

	ok, err := v.Verify(context.Background(), "tok-123", "203.0.113.9")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected verification success")
	}
	if gotSecret != "shh" || gotToken != "tok-123" || gotIP != "203.0.113.9" {
		t.Fatalf("unexpected form values: secret=%q token=%q ip=%q", gotSecret, gotToken, gotIP)
	}
}

func TestVerify_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewTurnstile("shh", time.Second, logger.New("development")).WithEndpoint(srv.URL)

	ok, err := v.Verify(context.Background(), "bad", "")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("expected verification failure")
	}
}

func TestVerify_TransportErrorFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	v := NewTurnstile("shh", time.Second, nil).WithEndpoint(srv.URL)

	ok, err := v.Verify(context.Background(), "tok", "")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if ok {
		t.Fatal("transport error must not verify")
	}
}
