package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"videobot-backend/internal/common/config"
)

// Client provides the minimal Telegram Bot API surface the bot needs.
type Client struct {
	httpClient *http.Client
	token      string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		token:      cfg.Telegram.BotToken,
	}
}

type tgResponse[T any] struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      T      `json:"result"`
}

// User is the Telegram user attached to an update.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// InlineKeyboardButton mirrors the Bot API button object.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	params := url.Values{
		"offset":  {strconv.FormatInt(offset, 10)},
		"timeout": {strconv.Itoa(timeoutSec)},
	}

	var result tgResponse[[]Update]
	if err := c.makeRequest(ctx, http.MethodGet, "getUpdates", params, &result); err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	if !result.Ok {
		return nil, fmt.Errorf("telegram API error: %s", result.Description)
	}
	return result.Result, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if err := attachKeyboard(params, keyboard); err != nil {
		return err
	}
	return c.call(ctx, "sendMessage", params)
}

func (c *Client) SendVideo(ctx context.Context, chatID int64, fileID, caption string, keyboard *InlineKeyboardMarkup) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"video":   {fileID},
		"caption": {caption},
	}
	if err := attachKeyboard(params, keyboard); err != nil {
		return err
	}
	return c.call(ctx, "sendVideo", params)
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {text},
	}
	if err := attachKeyboard(params, keyboard); err != nil {
		return err
	}
	return c.call(ctx, "editMessageText", params)
}

func (c *Client) EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string, keyboard *InlineKeyboardMarkup) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"caption":    {caption},
	}
	if err := attachKeyboard(params, keyboard); err != nil {
		return err
	}
	return c.call(ctx, "editMessageCaption", params)
}

// EditMessageMedia swaps the video in an already-sent message.
func (c *Client) EditMessageMedia(ctx context.Context, chatID, messageID int64, fileID, caption string, keyboard *InlineKeyboardMarkup) error {
	media, err := json.Marshal(map[string]string{
		"type":    "video",
		"media":   fileID,
		"caption": caption,
	})
	if err != nil {
		return err
	}

	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"media":      {string(media)},
	}
	if err := attachKeyboard(params, keyboard); err != nil {
		return err
	}
	return c.call(ctx, "editMessageMedia", params)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	params := url.Values{
		"callback_query_id": {callbackID},
	}
	if text != "" {
		params.Set("text", text)
	}
	if showAlert {
		params.Set("show_alert", "true")
	}
	return c.call(ctx, "answerCallbackQuery", params)
}

func attachKeyboard(params url.Values, keyboard *InlineKeyboardMarkup) error {
	if keyboard == nil {
		return nil
	}
	data, err := json.Marshal(keyboard)
	if err != nil {
		return err
	}
	params.Set("reply_markup", string(data))
	return nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values) error {
	var result tgResponse[json.RawMessage]
	if err := c.makeRequest(ctx, http.MethodPost, method, params, &result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if !result.Ok {
		return fmt.Errorf("telegram API error on %s: %s", method, result.Description)
	}
	return nil
}

func (c *Client) makeRequest(ctx context.Context, httpMethod, apiMethod string, data url.Values, out any) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/%s", c.token, apiMethod)

	var req *http.Request
	var err error
	if httpMethod == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, httpMethod, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if len(data) > 0 {
			endpoint = endpoint + "?" + data.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, httpMethod, endpoint, nil)
		if err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}
