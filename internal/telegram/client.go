// Package telegram is the Bot API transport: update conversion, the HTTP
// client, the long-polling loop and the dispatcher shared with the webhook.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.telegram.org"

// Client calls the Bot API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.Logger
}

// NewClient creates a client for token. timeout bounds every call except
// long polls, which get their own poll timeout on top.
func NewClient(apiURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(apiURL, "/") + "/bot" + token,
		httpClient: &http.Client{},
		timeout:    timeout,
		log:        log.Named("telegram"),
	}
}

func (c *Client) call(ctx context.Context, method string, payload, result interface{}, timeout time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTelegramRequest, "marshal %s", method)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTelegramRequest, "build %s", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTelegramRequest, "%s", method)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTelegramRequest, "read %s", method)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return apperrors.Newf(apperrors.ErrTelegramResponse, "%s: http %d", method, resp.StatusCode)
	}
	if !apiResp.OK {
		return apperrors.Newf(apperrors.ErrTelegramResponse, "%s: %d %s", method, apiResp.ErrorCode, apiResp.Description)
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTelegramResponse, "decode %s result", method)
		}
	}
	return nil
}

// Send posts a sendMessage or editMessageText call.
func (c *Client) Send(ctx context.Context, m *MethodResponse) error {
	payload := *m
	payload.Method = ""
	return c.call(ctx, m.Method, payload, nil, c.timeout)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, MethodAnswerCallbackQuery, AnswerCallbackQueryRequest{CallbackQueryID: callbackID}, nil, c.timeout)
}

func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	err := c.call(ctx, MethodSetWebhook, SetWebhookRequest{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: allowedUpdates,
	}, nil, c.timeout)
	if err == nil {
		c.log.Info("Webhook registered", zap.String("url", url))
	}
	return err
}

// DeleteWebhook is required before getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, MethodDeleteWebhook, struct{}{}, nil, c.timeout)
}

// SetMyCommands publishes the command menu; an empty languageCode sets the
// default menu.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand, languageCode string) error {
	return c.call(ctx, MethodSetMyCommands, SetMyCommandsRequest{
		Commands:     commands,
		LanguageCode: languageCode,
	}, nil, c.timeout)
}

// GetUpdates long-polls for updates with id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, MethodGetUpdates, GetUpdatesRequest{
		Offset:         offset,
		Timeout:        int(pollTimeout / time.Second),
		AllowedUpdates: allowedUpdates,
	}, &updates, pollTimeout+c.timeout)
	if err != nil {
		return nil, err
	}
	return updates, nil
}
