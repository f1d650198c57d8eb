package bitrix

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"leadhook_backend/platform/apperr"
	"leadhook_backend/platform/logger"
)

type testConfig struct {
	base string
}

func (c testConfig) GetBitrixBase() string               { return c.base }
func (c testConfig) GetTrackingIDField() string          { return "UF_CRM_1760696365" }
func (c testConfig) GetTicketIDField() string            { return "UF_CRM_1651562833" }
func (c testConfig) GetActivityFallbackEmail() string    { return "info@enterio.ru" }
func (c testConfig) GetHTTPClientTimeout() time.Duration { return time.Second }

type recordedCall struct {
	method string
	body   map[string]interface{}
}

// fakePortal records every REST call and answers crm.lead.add with a
// fixed lead id.
type fakePortal struct {
	mu    sync.Mutex
	calls []recordedCall
	fail  map[string]int // method -> status code to answer with
}

func (p *fakePortal) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(data, &body)

		method := r.URL.Path[1 : len(r.URL.Path)-len(".json")]

		p.mu.Lock()
		p.calls = append(p.calls, recordedCall{method: method, body: body})
		status := p.fail[method]
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"ERROR_CORE","error_description":"boom"}`))
			return
		}

		switch method {
		case "crm.lead.add":
			_, _ = w.Write([]byte(`{"result":4242}`))
		default:
			_, _ = w.Write([]byte(`{"result":true}`))
		}
	})
}

func (p *fakePortal) callsFor(method string) []recordedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedCall
	for _, c := range p.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(t *testing.T, portal *fakePortal) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(portal.handler())
	t.Cleanup(srv.Close)
	cfg := testConfig{base: srv.URL}
	return NewClient(cfg, cfg, logger.New("development")), srv
}

func TestCreateLead_MapsFieldsAndBackfillsTicket(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	result, err := client.CreateLead(context.Background(), LeadInput{
		Title:      "Заявка на обратный звонок",
		Name:       "Иван",
		Phone:      "+79161234567",
		Comment:    "Перезвоните",
		Source:     "Telegram",
		TrackingID: "ym-777",
	})
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if result.LeadID != 4242 {
		t.Fatalf("lead id = %d, want 4242", result.LeadID)
	}
	if len(result.Raw) == 0 {
		t.Fatal("raw portal response missing")
	}

	adds := portal.callsFor("crm.lead.add")
	if len(adds) != 1 {
		t.Fatalf("crm.lead.add calls = %d, want 1", len(adds))
	}
	fields := adds[0].body["fields"].(map[string]interface{})
	if fields["TITLE"] != "Заявка на обратный звонок" {
		t.Fatalf("TITLE = %v", fields["TITLE"])
	}
	if fields["SOURCE_ID"] != "UC_I4W10P" || fields["SOURCE_DESCRIPTION"] != "Telegram" {
		t.Fatalf("source mapping = %v / %v", fields["SOURCE_ID"], fields["SOURCE_DESCRIPTION"])
	}
	if fields["UF_CRM_1760696365"] != "ym-777" {
		t.Fatalf("tracking field = %v", fields["UF_CRM_1760696365"])
	}
	phones := fields["PHONE"].([]interface{})
	if len(phones) != 1 {
		t.Fatalf("PHONE entries = %d, want 1", len(phones))
	}
	entry := phones[0].(map[string]interface{})
	if entry["VALUE"] != "+79161234567" || entry["TYPE"] != "WORK" {
		t.Fatalf("PHONE entry = %v", entry)
	}

	updates := portal.callsFor("crm.lead.update")
	if len(updates) != 1 {
		t.Fatalf("crm.lead.update calls = %d, want 1", len(updates))
	}
	backfill := updates[0].body["fields"].(map[string]interface{})
	if backfill["UF_CRM_1651562833"] != float64(4242) {
		t.Fatalf("ticket backfill = %v", backfill["UF_CRM_1651562833"])
	}
}

func TestCreateLead_UnknownSourceFallsBackToWeb(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	if _, err := client.CreateLead(context.Background(), LeadInput{
		Title:  "Новая заявка",
		Source: "Yandex Maps",
	}); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	fields := portal.callsFor("crm.lead.add")[0].body["fields"].(map[string]interface{})
	if fields["SOURCE_ID"] != "WEB" || fields["SOURCE_DESCRIPTION"] != "Yandex Maps" {
		t.Fatalf("source mapping = %v / %v", fields["SOURCE_ID"], fields["SOURCE_DESCRIPTION"])
	}
}

func TestCreateLead_BackfillFailureDoesNotFailCreation(t *testing.T) {
	portal := &fakePortal{fail: map[string]int{"crm.lead.update": http.StatusBadRequest}}
	client, _ := newTestClient(t, portal)

	result, err := client.CreateLead(context.Background(), LeadInput{Title: "Новая заявка"})
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if result.LeadID != 4242 {
		t.Fatalf("lead id = %d, want 4242", result.LeadID)
	}
}

func TestCreateLead_PortalErrorIsUpstream(t *testing.T) {
	portal := &fakePortal{fail: map[string]int{"crm.lead.add": http.StatusBadRequest}}
	client, _ := newTestClient(t, portal)

	_, err := client.CreateLead(context.Background(), LeadInput{Title: "Новая заявка"})
	if err == nil {
		t.Fatal("expected error from portal")
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("error kind = %v, want upstream", apperr.GetKind(err))
	}
}

func TestCreateLead_MissingBaseIsInternal(t *testing.T) {
	cfg := testConfig{base: ""}
	client := NewClient(cfg, cfg, logger.New("development"))

	_, err := client.CreateLead(context.Background(), LeadInput{Title: "Новая заявка"})
	if err == nil {
		t.Fatal("expected error without base URL")
	}
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("error kind = %v, want internal", apperr.GetKind(err))
	}
}

func TestEnrich_RunsCommentAndActivity(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	err := client.Enrich(context.Background(), 4242,
		"Перезвоните", "2026-09-01T10:00:00", "2026-09-01T12:00:00", "+79161234567")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	comments := portal.callsFor("crm.timeline.comment.add")
	if len(comments) != 1 {
		t.Fatalf("timeline comment calls = %d, want 1", len(comments))
	}
	cf := comments[0].body["fields"].(map[string]interface{})
	if cf["ENTITY_TYPE"] != "lead" || cf["COMMENT"] != "Перезвоните" {
		t.Fatalf("comment fields = %v", cf)
	}

	activities := portal.callsFor("crm.activity.add")
	if len(activities) != 1 {
		t.Fatalf("activity calls = %d, want 1", len(activities))
	}
	af := activities[0].body["fields"].(map[string]interface{})
	if af["SUBJECT"] != "Связаться с клиентом" {
		t.Fatalf("activity subject = %v", af["SUBJECT"])
	}
	if af["START_TIME"] != "2026-09-01T10:00:00" || af["END_TIME"] != "2026-09-01T12:00:00" {
		t.Fatalf("activity window = %v / %v", af["START_TIME"], af["END_TIME"])
	}
	comms := af["COMMUNICATIONS"].([]interface{})
	first := comms[0].(map[string]interface{})
	if first["VALUE"] != "+79161234567" || first["TYPE"] != "PHONE" {
		t.Fatalf("communications = %v", first)
	}
}

func TestEnrich_SkipsActivityWithoutWindow(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	if err := client.Enrich(context.Background(), 4242, "Перезвоните", "", "", ""); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if calls := portal.callsFor("crm.activity.add"); len(calls) != 0 {
		t.Fatalf("activity calls = %d, want 0", len(calls))
	}
}

func TestAddActivity_FallsBackToEmailCommunication(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	err := client.AddActivity(context.Background(), 4242,
		"2026-09-01T10:00:00", "2026-09-01T10:00:00", "")
	if err != nil {
		t.Fatalf("AddActivity: %v", err)
	}

	af := portal.callsFor("crm.activity.add")[0].body["fields"].(map[string]interface{})
	comms := af["COMMUNICATIONS"].([]interface{})
	first := comms[0].(map[string]interface{})
	if first["VALUE"] != "info@enterio.ru" || first["TYPE"] != "EMAIL" {
		t.Fatalf("fallback communication = %v", first)
	}
}

func TestAddTimelineComment_SkipsEmptyComment(t *testing.T) {
	portal := &fakePortal{}
	client, _ := newTestClient(t, portal)

	if err := client.AddTimelineComment(context.Background(), 4242, "  "); err != nil {
		t.Fatalf("AddTimelineComment: %v", err)
	}
	if calls := portal.callsFor("crm.timeline.comment.add"); len(calls) != 0 {
		t.Fatalf("comment calls = %d, want 0", len(calls))
	}
}
