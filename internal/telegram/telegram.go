package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"avito-watch/internal/model"
	"avito-watch/internal/providers/common"
)

const defaultAPIBase = "https://api.telegram.org"

var ErrNotConfigured = errors.New("telegram token or chat id is missing")

type APIError struct {
	StatusCode  int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram error: %d %s (retry after %s)", e.StatusCode, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram error: %d %s", e.StatusCode, e.Description)
}

type Sender struct {
	token    string
	chat     string
	threadID *int
	rooms    int

	client  *http.Client
	apiBase string
}

type Option func(*Sender)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		s.client = client
	}
}

func WithAPIBase(base string) Option {
	return func(s *Sender) {
		s.apiBase = strings.TrimRight(base, "/")
	}
}

func WithThreadID(threadID *int) Option {
	return func(s *Sender) {
		s.threadID = threadID
	}
}

// WithRooms sets the room count named in the message header.
func WithRooms(rooms int) Option {
	return func(s *Sender) {
		s.rooms = rooms
	}
}

func NewSender(token, chat string, options ...Option) *Sender {
	s := &Sender{
		token:   token,
		chat:    chat,
		rooms:   2,
		client:  &http.Client{Timeout: 15 * time.Second},
		apiBase: defaultAPIBase,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Verify checks the bot token with getMe.
func (s *Sender) Verify(ctx context.Context) error {
	if s.token == "" || s.chat == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.methodURL("getMe"), nil)
	if err != nil {
		return err
	}
	return s.do(req)
}

// Send delivers one listing. Failures are returned as is; the caller decides
// what to do with them.
func (s *Sender) Send(ctx context.Context, listing model.Listing) error {
	if s.token == "" || s.chat == "" {
		return ErrNotConfigured
	}

	payload := map[string]any{
		"chat_id":                  s.chat,
		"text":                     formatMessage(listing, s.rooms),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return s.do(req)
}

func (s *Sender) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.token, method)
}

func (s *Sender) do(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return redactToken(err, s.token)
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.OK {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Description: parsed.Description,
			RetryAfter:  time.Duration(parsed.Parameters.RetryAfter) * time.Second,
		}
	}
	return nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func formatMessage(listing model.Listing, rooms int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 <b>Новая %d-комнатная!</b>\n\n", rooms)
	fmt.Fprintf(&b, "💰 %s\n", common.FormatPrice(listing.Price))
	fmt.Fprintf(&b, "📝 %s\n\n", html.EscapeString(listing.Title))
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">Смотреть объявление</a>", html.EscapeString(listing.Link))
	return b.String()
}

// redactToken keeps the bot token out of transport errors, which embed the request URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
