package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Update represents a Telegram update
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message represents a Telegram message
type Message struct {
	MessageID int    `json:"message_id"`
	From      User   `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User represents a Telegram user
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
	IsBot     bool   `json:"is_bot"`
}

// Chat represents a Telegram chat
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Client is a wrapper for the Telegram Bot API
type Client struct {
	Token      string
	APIBase    string
	HTTPClient *http.Client
}

// NewClient creates a new Telegram client
func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		APIBase:    "https://api.telegram.org",
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

func decode[T any](resp *http.Response) (T, error) {
	var result apiResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result.Result, fmt.Errorf("decode telegram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !result.OK {
		return result.Result, fmt.Errorf("telegram API returned %s: %s", resp.Status, result.Description)
	}
	return result.Result, nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int, timeout int) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", fmt.Sprint(offset))
	q.Set("timeout", fmt.Sprint(timeout))
	u := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.APIBase, c.Token, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decode[[]Update](resp)
}

// SendMessage sends plain text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", c.APIBase, c.Token)

	body, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = decode[json.RawMessage](resp)
	return err
}
