package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mundheim/grouptrack/internal/config"
	"github.com/mundheim/grouptrack/internal/logging"
	"github.com/mundheim/grouptrack/internal/reporting"
)

const apiBaseURL = "https://api.telegram.org"

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BotAPI is the boundary to the Telegram chat transport.
type BotAPI interface {
	// GetUpdates long-polls for updates with update_id > offset.
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	// SendMessage sends a Markdown-formatted reply to a chat.
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type botAPIImpl struct {
	httpClient HttpClient
	token      string
	baseURL    string
}

func (api botAPIImpl) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", api.baseURL, api.token, method)
}

func (api botAPIImpl) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	logger := logging.FromContext(ctx)

	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	req, err := http.NewRequestWithContext(ctx, "POST", api.methodURL("getUpdates"), strings.NewReader(params.Encode()))
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := api.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}

	var parsed updatesResponse
	err = json.Unmarshal(data, &parsed)
	if err != nil {
		err := fmt.Errorf("failed to parse getUpdates response: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}
	if !parsed.OK {
		err := fmt.Errorf("getUpdates failed: %d %s", parsed.ErrorCode, parsed.Description)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}

	logger.Info("getUpdates completed", "updates", len(parsed.Result), "status", resp.StatusCode, "duration", time.Since(start).String())

	return parsed.Result, nil
}

func (api botAPIImpl) SendMessage(ctx context.Context, chatID int64, text string) error {
	logger := logging.FromContext(ctx)

	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	params.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, "POST", api.methodURL("sendMessage"), strings.NewReader(params.Encode()))
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := api.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("failed to send request: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return err
	}

	var parsed sendMessageResponse
	err = json.Unmarshal(data, &parsed)
	if err != nil {
		err := fmt.Errorf("failed to parse sendMessage response: %w", err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return err
	}
	if !parsed.OK {
		err := fmt.Errorf("sendMessage failed: %d %s", parsed.ErrorCode, parsed.Description)
		logger.Error(err.Error())
		reporting.Report(ctx, err, map[string]string{
			"chatID": fmt.Sprint(chatID),
		})
		return err
	}

	return nil
}

func NewBotAPI(httpClient HttpClient, token string) BotAPI {
	return botAPIImpl{
		httpClient: httpClient,
		token:      token,
		baseURL:    apiBaseURL,
	}
}

// NewBotAPIWithBaseURL is used by tests to point the client at a test server.
func NewBotAPIWithBaseURL(httpClient HttpClient, token, baseURL string) BotAPI {
	return botAPIImpl{
		httpClient: httpClient,
		token:      token,
		baseURL:    baseURL,
	}
}

type mockedBotAPI struct{}

func (api *mockedBotAPI) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	// Block like a real long poll so the worker doesn't spin
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

func (api *mockedBotAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	logging.FromContext(ctx).Info("Would send message", "chatID", chatID, "text", text)
	return nil
}

func NewBotAPIOrMock(conf config.Config, httpClient HttpClient) (BotAPI, error) {
	if conf.BotToken() != "" {
		return NewBotAPI(httpClient, conf.BotToken()), nil
	}
	if conf.IsDevelopment() {
		return &mockedBotAPI{}, nil
	}
	return nil, fmt.Errorf("missing bot token in non-development environment")
}
