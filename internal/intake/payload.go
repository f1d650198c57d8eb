// Package intake implements the lead capture pipeline: parsing the
// heterogeneous site form payloads, gating them, and driving the CRM and
// notification fan-out.
package intake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"leadhook_backend/platform/apperr"
	"leadhook_backend/platform/phone"
)

const defaultSource = "Веб-сайт"

// NormalizedLead is the canonical form of a submission. It is built once
// per request and not mutated afterwards.
type NormalizedLead struct {
	Name        string `validate:"max=200"`
	Phone       string `validate:"max=32"`
	Comment     string `validate:"max=4000"`
	Date        string `validate:"max=64"`
	Time        string `validate:"max=64"`
	FormName    string `validate:"max=200"`
	CompanyName string `validate:"max=300"`
	Activity    string `validate:"max=300"`
	YMClientID  string `validate:"max=100"`
	Source      string `validate:"max=100"`

	UTMSource   string `validate:"max=200"`
	UTMMedium   string `validate:"max=200"`
	UTMCampaign string `validate:"max=200"`
	UTMTerm     string `validate:"max=200"`
	UTMContent  string `validate:"max=200"`

	TurnstileToken string `validate:"max=4000"`
}

// IsBot reports whether the submission came from the site's chat bot.
func (l NormalizedLead) IsBot() bool {
	return strings.EqualFold(l.FormName, "ai chat")
}

// ParseRequest reads the request body into a NormalizedLead. JSON and
// urlencoded form bodies are accepted; some site builders wrap the fields
// in a payload.data envelope, which takes precedence when present.
func ParseRequest(r *http.Request) (NormalizedLead, error) {
	contentType := r.Header.Get("Content-Type")

	var raw map[string]interface{}
	switch {
	case strings.Contains(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return NormalizedLead{}, apperr.Wrap(apperr.KindBadRequest, "request body is not valid JSON", err)
		}
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return NormalizedLead{}, apperr.Wrap(apperr.KindBadRequest, "request body is not a valid form", err)
		}
		raw = make(map[string]interface{}, len(r.PostForm))
		for key := range r.PostForm {
			raw[key] = r.PostForm.Get(key)
		}
	default:
		return NormalizedLead{}, apperr.BadRequest("unsupported content type")
	}

	if payload, ok := raw["payload"].(map[string]interface{}); ok {
		if data, ok := payload["data"].(map[string]interface{}); ok {
			raw = data
		}
	}

	field := func(key string) string { return strings.TrimSpace(asString(raw[key])) }

	lead := NormalizedLead{
		Name:        field("name"),
		Phone:       phone.Lenient(field("phone")),
		Comment:     field("comment"),
		Date:        field("date"),
		Time:        field("time"),
		FormName:    field("form_name"),
		CompanyName: field("company_name"),
		Activity:    field("activity"),
		YMClientID:  field("ym_client_id"),
		Source:      field("source"),
		UTMSource:   field("utm_source"),
		UTMMedium:   field("utm_medium"),
		UTMCampaign: field("utm_campaign"),
		UTMTerm:     field("utm_term"),
		UTMContent:  field("utm_content"),
	}
	if lead.Source == "" {
		lead.Source = defaultSource
	}

	lead.TurnstileToken = field("turnstile_token")
	if lead.TurnstileToken == "" {
		lead.TurnstileToken = field("cf-turnstile-response")
	}

	return lead, nil
}

// asString renders the scalar JSON values the site builders actually send;
// numbers appear for fields like ym_client_id.
func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
