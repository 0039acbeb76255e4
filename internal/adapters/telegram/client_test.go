package telegram

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const token = "123456:testtoken"

type mockedHttpClient struct {
	t           *testing.T
	expectedURL string
	statusCode  int
	body        string
	requestErr  error

	gotForm url.Values
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	require.Equal(m.t, m.expectedURL, req.URL.String())

	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		require.NoError(m.t, err)
		form, err := url.ParseQuery(string(raw))
		require.NoError(m.t, err)
		m.gotForm = form
	}

	if m.requestErr != nil {
		return nil, m.requestErr
	}

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestGetUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("parses updates and passes the offset", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: "https://api.telegram.org/bot" + token + "/getUpdates",
			statusCode:  200,
			body: `{"ok":true,"result":[
				{"update_id":7,"message":{"message_id":1,"from":{"id":42,"first_name":"Arthur","username":"dentarthurdent"},"chat":{"id":-100,"type":"supergroup"},"text":"hello"}},
				{"update_id":8,"message":{"message_id":2,"from":{"id":43,"first_name":"Ford"},"chat":{"id":-100,"type":"supergroup"},"sticker":{"file_id":"abc","emoji":"🦄"}}}
			]}`,
		}

		api := NewBotAPI(client, token)

		updates, err := api.GetUpdates(ctx, 7, 30*time.Second)
		require.NoError(t, err)
		require.Len(t, updates, 2)

		require.Equal(t, "7", client.gotForm.Get("offset"))
		require.Equal(t, "30", client.gotForm.Get("timeout"))

		require.Equal(t, int64(7), updates[0].UpdateID)
		require.Equal(t, "hello", updates[0].Message.Text)
		require.Equal(t, int64(42), updates[0].Message.From.ID)
		require.True(t, updates[0].Message.Chat.IsGroup())

		require.NotNil(t, updates[1].Message.Sticker)
		require.Empty(t, updates[1].Message.Text)
	})

	t.Run("api-level failure is an error", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: "https://api.telegram.org/bot" + token + "/getUpdates",
			statusCode:  401,
			body:        `{"ok":false,"error_code":401,"description":"Unauthorized"}`,
		}

		api := NewBotAPI(client, token)

		_, err := api.GetUpdates(ctx, 0, time.Second)
		require.Error(t, err)
		require.Contains(t, err.Error(), "Unauthorized")
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: "https://api.telegram.org/bot" + token + "/getUpdates",
			requestErr:  io.ErrUnexpectedEOF,
		}

		api := NewBotAPI(client, token)

		_, err := api.GetUpdates(ctx, 0, time.Second)
		require.Error(t, err)
	})
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sends markdown message to the chat", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: "https://api.telegram.org/bot" + token + "/sendMessage",
			statusCode:  200,
			body:        `{"ok":true}`,
		}

		api := NewBotAPI(client, token)

		err := api.SendMessage(ctx, -100, "*hello*")
		require.NoError(t, err)

		require.Equal(t, "-100", client.gotForm.Get("chat_id"))
		require.Equal(t, "*hello*", client.gotForm.Get("text"))
		require.Equal(t, "Markdown", client.gotForm.Get("parse_mode"))
	})

	t.Run("api-level failure is an error", func(t *testing.T) {
		t.Parallel()

		client := &mockedHttpClient{
			t:           t,
			expectedURL: "https://api.telegram.org/bot" + token + "/sendMessage",
			statusCode:  400,
			body:        `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
		}

		api := NewBotAPI(client, token)

		err := api.SendMessage(ctx, -100, "hello")
		require.Error(t, err)
		require.Contains(t, err.Error(), "chat not found")
	})
}
