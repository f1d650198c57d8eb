// Package telegram posts lead notifications to a Telegram chat through
// the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"leadhook_backend/platform/config"
	"leadhook_backend/platform/logger"
	"leadhook_backend/platform/phone"
)

const defaultAPIBase = "https://api.telegram.org"

// Notification mirrors the fields rendered into the chat message.
type Notification struct {
	Title       string
	Name        string
	Phone       string
	Source      string
	CompanyName string
	Activity    string
	Comment     string
	Date        string
	Time        string
}

// Client sends messages via the Bot API. A nil Client is a valid no-op,
// returned when the bot token or chat id is not configured.
type Client struct {
	token   string
	chatID  string
	apiBase string
	http    *http.Client
	log     *logger.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func NewClient(cfg config.TelegramConfig, client config.ClientConfig, log *logger.Logger) *Client {
	if cfg.GetTelegramBotToken() == "" || cfg.GetTelegramChatID() == "" {
		return nil
	}

	return &Client{
		token:   cfg.GetTelegramBotToken(),
		chatID:  cfg.GetTelegramChatID(),
		apiBase: defaultAPIBase,
		http:    &http.Client{Timeout: client.GetHTTPClientTimeout()},
		log:     log,
	}
}

// WithAPIBase overrides the Bot API host (used in tests).
func (c *Client) WithAPIBase(base string) *Client {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

// SendLeadNotification formats the lead as an HTML message and posts it
// to the configured chat.
func (c *Client) SendLeadNotification(ctx context.Context, n Notification) error {
	if c == nil {
		return nil
	}

	payload := sendMessageRequest{
		ChatID:    c.chatID,
		Text:      formatMessage(n),
		ParseMode: "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram response read failed: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("telegram response decode failed: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram sendMessage failed: %s", result.Description)
	}

	c.log.Info("telegram notification sent", "chat_id", c.chatID)
	return nil
}

// formatMessage builds the HTML message body. User-provided values are
// escaped so they cannot break the markup. The non-breaking space keeps
// Telegram from collapsing the blank separator lines.
func formatMessage(n Notification) string {
	displayPhone := "—"
	if n.Phone != "" {
		displayPhone = phone.DisplayE164(n.Phone)
	}
	displayName := n.Name
	if displayName == "" {
		displayName = "—"
	}

	lines := []string{
		fmt.Sprintf("📬 <b>%s</b>", html.EscapeString(n.Title)),
		" ",
		fmt.Sprintf("👤 <b>Имя:</b> %s", html.EscapeString(displayName)),
		fmt.Sprintf("📞 <b>Телефон:</b> %s", html.EscapeString(displayPhone)),
	}
	if n.Source != "" {
		lines = append(lines, fmt.Sprintf("🌐 <b>Источник:</b> %s", html.EscapeString(n.Source)))
	}
	if n.CompanyName != "" {
		lines = append(lines, fmt.Sprintf("🏢 <b>Компания:</b> %s", html.EscapeString(n.CompanyName)))
	}
	if n.Activity != "" {
		lines = append(lines, fmt.Sprintf("💼 <b>Сфера деятельности:</b> %s", html.EscapeString(n.Activity)))
	}
	lines = append(lines, " ")
	if n.Comment != "" {
		lines = append(lines, fmt.Sprintf("💬 <b>Комментарий:</b> %s", html.EscapeString(n.Comment)))
	}
	if n.Date != "" {
		lines = append(lines, fmt.Sprintf("📅 <b>Дата для связи:</b> %s", html.EscapeString(n.Date)))
	}
	if n.Time != "" {
		lines = append(lines, fmt.Sprintf("⏰ <b>Время для связи:</b> %s", html.EscapeString(n.Time)))
	}

	return strings.Join(lines, "\n")
}
