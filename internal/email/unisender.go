package email

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"leadhook_backend/platform/config"
)

const defaultUnisenderBase = "https://api.unisender.com/ru/api"

// UnisenderSender delivers notifications through the Unisender
// transactional API. Unisender requires a contact list id on every send,
// so the first list on the account is looked up per delivery.
type UnisenderSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	recipient string
	base      string
	client    *http.Client
}

func NewUnisenderSender(cfg config.EmailConfig, client config.ClientConfig) *UnisenderSender {
	return &UnisenderSender{
		apiKey:    cfg.GetUnisenderAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		recipient: cfg.GetEmailRecipient(),
		base:      defaultUnisenderBase,
		client:    &http.Client{Timeout: client.GetHTTPClientTimeout()},
	}
}

// WithBase overrides the API base URL (used in tests).
func (u *UnisenderSender) WithBase(base string) *UnisenderSender {
	u.base = strings.TrimRight(base, "/")
	return u
}

type unisenderList struct {
	ID json.Number `json:"id"`
}

type unisenderListsResponse struct {
	Result []unisenderList `json:"result"`
	Error  string          `json:"error"`
}

func (u *UnisenderSender) SendLeadNotification(ctx context.Context, n Notification) error {
	listID, err := u.firstListID(ctx)
	if err != nil {
		return err
	}

	body, err := renderLeadBody(n)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("api_key", u.apiKey)
	form.Set("email", fmt.Sprintf("%s <%s>", u.fromName, u.recipient))
	form.Set("sender_name", u.fromName)
	form.Set("sender_email", u.fromEmail)
	form.Set("subject", n.Title)
	form.Set("body", body)
	form.Set("list_id", strconv.FormatInt(listID, 10))
	form.Set("lang", "ru")
	form.Set("error_checking", "1")

	data, err := u.post(ctx, "sendEmail", form)
	if err != nil {
		return err
	}

	var result struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &result); err == nil && result.Error != "" {
		return fmt.Errorf("unisender sendEmail: %s", result.Error)
	}
	return nil
}

func (u *UnisenderSender) firstListID(ctx context.Context) (int64, error) {
	form := url.Values{}
	form.Set("api_key", u.apiKey)

	data, err := u.post(ctx, "getLists", form)
	if err != nil {
		return 0, err
	}

	var lists unisenderListsResponse
	if err := json.Unmarshal(data, &lists); err != nil {
		return 0, fmt.Errorf("unisender getLists decode: %w", err)
	}
	if lists.Error != "" {
		return 0, fmt.Errorf("unisender getLists: %s", lists.Error)
	}
	if len(lists.Result) == 0 {
		return 0, fmt.Errorf("unisender account has no contact lists")
	}
	return lists.Result[0].ID.Int64()
}

func (u *UnisenderSender) post(ctx context.Context, method string, form url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s?format=json", u.base, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unisender %s request failed: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unisender %s response read failed: %w", method, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unisender %s returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
