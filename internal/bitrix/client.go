// Package bitrix implements the Bitrix24 REST gateway used by the intake
// pipeline. All calls go through the inbound webhook base URL configured
// for the portal, e.g. https://example.bitrix24.ru/rest/1/secret.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"leadhook_backend/platform/apperr"
	"leadhook_backend/platform/config"
	"leadhook_backend/platform/logger"
)

// sourceEntry maps a human-readable traffic source onto the CRM's
// SOURCE_ID dictionary.
type sourceEntry struct {
	ID          string
	Description string
}

var sourceMap = map[string]sourceEntry{
	"WhatsApp": {ID: "UC_8I4SRC", Description: "WhatsApp"},
	"Telegram": {ID: "UC_I4W10P", Description: "Telegram"},
	"AI Chat":  {ID: "UC_AI_CHAT", Description: "AI Chat"},
	"Веб-сайт": {ID: "WEB", Description: "Веб-сайт"},
}

func resolveSource(source string) sourceEntry {
	if entry, ok := sourceMap[source]; ok {
		return entry
	}
	description := source
	if description == "" {
		description = "Веб-сайт"
	}
	return sourceEntry{ID: "WEB", Description: description}
}

// LeadInput carries everything needed to create a lead.
type LeadInput struct {
	Title      string
	Name       string
	Phone      string
	Comment    string
	Source     string
	TrackingID string
	OwnerID    int64
}

// CreateResult is the outcome of a lead creation call. Raw preserves the
// portal's response body so the intake handler can pass it through.
type CreateResult struct {
	LeadID int64
	Raw    json.RawMessage
}

type restResponse struct {
	Result           json.Number `json:"result"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

// Client talks to the Bitrix24 REST API.
type Client struct {
	base          string
	trackingField string
	ticketField   string
	fallbackEmail string
	http          *http.Client
	log           *logger.Logger
}

func NewClient(cfg config.BitrixConfig, client config.ClientConfig, log *logger.Logger) *Client {
	return &Client{
		base:          strings.TrimRight(cfg.GetBitrixBase(), "/"),
		trackingField: cfg.GetTrackingIDField(),
		ticketField:   cfg.GetTicketIDField(),
		fallbackEmail: cfg.GetActivityFallbackEmail(),
		http:          &http.Client{Timeout: client.GetHTTPClientTimeout()},
		log:           log,
	}
}

// CreateLead adds a lead via crm.lead.add and backfills the lead's own ID
// into the ticket number field. A backfill failure is logged but does not
// fail the creation: the lead already exists at that point.
func (c *Client) CreateLead(ctx context.Context, input LeadInput) (*CreateResult, error) {
	if c.base == "" {
		return nil, apperr.Internal("bitrix base URL is not configured")
	}

	source := resolveSource(input.Source)

	fields := map[string]interface{}{
		"TITLE":              input.Title,
		"SOURCE_ID":          source.ID,
		"SOURCE_DESCRIPTION": source.Description,
	}
	if input.Name != "" {
		fields["NAME"] = input.Name
	}
	if input.Phone != "" {
		fields["PHONE"] = []map[string]string{{"VALUE": input.Phone, "TYPE": "WORK"}}
	} else {
		fields["PHONE"] = []map[string]string{}
	}
	if comment := strings.TrimSpace(input.Comment); comment != "" {
		fields["COMMENTS"] = comment
	}
	if input.TrackingID != "" {
		fields[c.trackingField] = input.TrackingID
	}
	if input.OwnerID > 0 {
		fields["ASSIGNED_BY_ID"] = input.OwnerID
	}

	payload := map[string]interface{}{
		"fields": fields,
		"params": map[string]string{"REGISTER_SONET_EVENT": "Y"},
	}

	raw, err := c.call(ctx, "crm.lead.add", payload)
	if err != nil {
		return nil, err
	}

	var parsed restResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "bitrix returned an unreadable response", err)
	}
	if parsed.Error != "" {
		return nil, apperr.Upstream(fmt.Sprintf("bitrix rejected the lead: %s", parsed.ErrorDescription)).WithDetails(raw)
	}

	leadID, err := parsed.Result.Int64()
	if err != nil || leadID <= 0 {
		return nil, apperr.Wrap(apperr.KindUpstream, "bitrix did not return a lead id", err).WithDetails(raw)
	}

	if err := c.backfillTicketID(ctx, leadID); err != nil {
		c.log.UpstreamError("bitrix", "lead ticket backfill", err)
	}

	return &CreateResult{LeadID: leadID, Raw: raw}, nil
}

func (c *Client) backfillTicketID(ctx context.Context, leadID int64) error {
	payload := map[string]interface{}{
		"id": leadID,
		"fields": map[string]interface{}{
			c.ticketField: leadID,
		},
	}
	_, err := c.call(ctx, "crm.lead.update", payload)
	return err
}

// AddTimelineComment attaches the submission text to the lead's timeline.
// Empty comments are skipped.
func (c *Client) AddTimelineComment(ctx context.Context, leadID int64, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return nil
	}

	payload := map[string]interface{}{
		"fields": map[string]interface{}{
			"ENTITY_ID":   leadID,
			"ENTITY_TYPE": "lead",
			"COMMENT":     comment,
		},
	}
	_, err := c.call(ctx, "crm.timeline.comment.add", payload)
	return err
}

// AddActivity plans a follow-up call in the requested window. The CRM
// requires at least one communication channel, so when the lead has no
// phone the configured office mailbox stands in.
func (c *Client) AddActivity(ctx context.Context, leadID int64, startTime, endTime, phone string) error {
	communications := []map[string]string{{"VALUE": c.fallbackEmail, "TYPE": "EMAIL"}}
	if phone != "" {
		communications = []map[string]string{{"VALUE": phone, "TYPE": "PHONE"}}
	}

	payload := map[string]interface{}{
		"fields": map[string]interface{}{
			"OWNER_ID":       leadID,
			"OWNER_TYPE_ID":  1,
			"TYPE_ID":        2,
			"SUBJECT":        "Связаться с клиентом",
			"DESCRIPTION":    "Автоматически создано из формы сайта",
			"START_TIME":     startTime,
			"END_TIME":       endTime,
			"COMPLETED":      "N",
			"NOTIFY_TYPE":    2,
			"NOTIFY_VALUE":   15,
			"COMMUNICATIONS": communications,
		},
	}
	_, err := c.call(ctx, "crm.activity.add", payload)
	return err
}

// Enrich runs the timeline comment and the follow-up activity in parallel.
// Empty startTime means no contact window was requested and the activity
// is skipped.
func (c *Client) Enrich(ctx context.Context, leadID int64, comment, startTime, endTime, phone string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := c.AddTimelineComment(gctx, leadID, comment); err != nil {
			return fmt.Errorf("timeline comment: %w", err)
		}
		return nil
	})

	if startTime != "" {
		g.Go(func() error {
			if err := c.AddActivity(gctx, leadID, startTime, endTime, phone); err != nil {
				return fmt.Errorf("follow-up activity: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/%s.json", c.base, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("bitrix %s request failed", method), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("bitrix %s response read failed", method), err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		appErr := apperr.Upstream(fmt.Sprintf("bitrix %s returned %d", method, resp.StatusCode))
		if json.Valid(data) {
			appErr = appErr.WithDetails(json.RawMessage(data))
		}
		return nil, appErr
	}

	return json.RawMessage(data), nil
}
