// Package telegram implements the chat transport: a thin Bot API client
// plus the long-poll command loop.  It is deliberately free of tracker
// logic; commands read the latest snapshot and the subscriber store through
// narrow interfaces.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiBase = "https://api.telegram.org/bot"

// Client talks to the Telegram Bot API.  It implements notify.Transport.
type Client struct {
	HTTPClient *http.Client
	token      string
	base       string // overridable in tests
}

// NewClient builds a client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		// Long polls hold the connection up to ~50s; leave headroom.
		HTTPClient: &http.Client{Timeout: 70 * time.Second},
		token:      token,
		base:       apiBase,
	}
}

// apiResponse is the uniform Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is the subset of the Bot API message object the bot needs.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message"`
}

// Update is one item from getUpdates.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// InlineKeyboardButton and InlineKeyboardMarkup mirror the Bot API types
// for callback-data buttons.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// call posts one Bot API method with a JSON body and decodes the envelope.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram %s: marshal: %w", method, err)
	}
	url := c.base + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: read: %w", method, err)
	}
	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("telegram %s: decode: %w", method, err)
	}
	if !env.OK {
		return fmt.Errorf("telegram %s: api error: %s", method, env.Description)
	}
	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// SendMessage delivers plain text to a chat.  This is the notify.Transport
// method the dispatcher fans out through.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.SendMessageMarkup(ctx, chatID, text, nil)
}

// SendMessageMarkup delivers text with an optional inline keyboard,
// rendered as Markdown.
func (c *Client) SendMessageMarkup(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	params := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	return c.call(ctx, "sendMessage", params, nil)
}

// GetUpdates long-polls for new updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	params := map[string]any{
		"offset":  offset,
		"timeout": timeoutSec,
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing a spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": id}, nil)
}
