package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type testEmailConfig struct{}

func (testEmailConfig) GetUnisenderAPIKey() string          { return "key-abc" }
func (testEmailConfig) GetEmailFromName() string            { return "Enterio" }
func (testEmailConfig) GetEmailFromAddress() string         { return "info@enterio.ru" }
func (testEmailConfig) GetEmailRecipient() string           { return "zayavki@enterio.ru" }
func (testEmailConfig) GetSMTPHost() string                 { return "" }
func (testEmailConfig) GetSMTPPort() int                    { return 587 }
func (testEmailConfig) GetSMTPUser() string                 { return "" }
func (testEmailConfig) GetSMTPPass() string                 { return "" }
func (testEmailConfig) GetHTTPClientTimeout() time.Duration { return time.Second }

func TestSendLeadNotification_LooksUpListThenSends(t *testing.T) {
	var sendForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/getLists"):
			if r.PostFormValue("api_key") != "key-abc" {
				t.Fatalf("getLists api_key = %q", r.PostFormValue("api_key"))
			}
			_, _ = w.Write([]byte(`{"result":[{"id":31337},{"id":2}]}`))
		case strings.HasPrefix(r.URL.Path, "/sendEmail"):
			sendForm = map[string]string{}
			for k := range r.PostForm {
				sendForm[k] = r.PostFormValue(k)
			}
			_, _ = w.Write([]byte(`{"result":{"index":1}}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	sender := NewUnisenderSender(testEmailConfig{}, testEmailConfig{}).WithBase(srv.URL)

	err := sender.SendLeadNotification(context.Background(), Notification{
		Title:       "Заявка на обратный звонок",
		Name:        "Иван",
		Phone:       "+7 916 123-45-67",
		Source:      "Веб-сайт",
		CompanyName: "ООО Ромашка",
	})
	if err != nil {
		t.Fatalf("SendLeadNotification: %v", err)
	}

	if sendForm == nil {
		t.Fatal("sendEmail was never called")
	}
	if sendForm["list_id"] != "31337" {
		t.Fatalf("list_id = %q, want first list", sendForm["list_id"])
	}
	if sendForm["subject"] != "Заявка на обратный звонок" {
		t.Fatalf("subject = %q", sendForm["subject"])
	}
	if sendForm["email"] != "Enterio <zayavki@enterio.ru>" {
		t.Fatalf("recipient = %q", sendForm["email"])
	}
	body := sendForm["body"]
	for _, want := range []string{"Иван", "ООО Ромашка", "Веб-сайт", "Имя:", "Телефон:"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Комментарий") {
		t.Fatalf("empty comment should not render:\n%s", body)
	}
}

func TestSendLeadNotification_NoListsIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	sender := NewUnisenderSender(testEmailConfig{}, testEmailConfig{}).WithBase(srv.URL)

	if err := sender.SendLeadNotification(context.Background(), Notification{Title: "x"}); err == nil {
		t.Fatal("expected error when account has no lists")
	}
}

func TestSendLeadNotification_APIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/getLists") {
			_, _ = w.Write([]byte(`{"result":[{"id":1}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	sender := NewUnisenderSender(testEmailConfig{}, testEmailConfig{}).WithBase(srv.URL)

	err := sender.SendLeadNotification(context.Background(), Notification{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestRenderLeadBody_MissingContactsRenderDashes(t *testing.T) {
	body, err := renderLeadBody(Notification{Title: "Новая заявка"})
	if err != nil {
		t.Fatalf("renderLeadBody: %v", err)
	}
	if !strings.Contains(body, "—") {
		t.Fatalf("placeholder dash missing:\n%s", body)
	}
}

func TestNewSender_TransportSelection(t *testing.T) {
	cfg := testEmailConfig{}
	if _, ok := NewSender(cfg, cfg).(*UnisenderSender); !ok {
		t.Fatal("expected unisender transport when api key is set")
	}
}
