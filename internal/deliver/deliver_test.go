package deliver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/mdmail/internal/config"
)

func testMessage() Message {
	return Message{
		To:      "reader@example.com",
		Subject: "Weekly notes",
		HTML:    "<div><p>Hello</p></div>",
		Text:    "Hello\n",
	}
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Message)
	}{
		{"missing recipient", func(m *Message) { m.To = "" }},
		{"invalid recipient", func(m *Message) { m.To = "not an address" }},
		{"missing subject", func(m *Message) { m.Subject = " " }},
		{"missing html", func(m *Message) { m.HTML = "" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := testMessage()
			tt.mutate(&msg)
			assert.ErrorIs(t, msg.Validate(), ErrInvalidMessage)
		})
	}
	assert.NoError(t, testMessage().Validate())
}

func TestNewPostmarkSenderInvalidConfig(t *testing.T) {
	t.Parallel()

	valid := PostmarkConfig{ServerToken: "s", AccountToken: "a", From: "me@example.com"}
	tests := []struct {
		name   string
		mutate func(*PostmarkConfig)
		msg    string
	}{
		{"server token", func(c *PostmarkConfig) { c.ServerToken = "" }, "server token is required"},
		{"account token", func(c *PostmarkConfig) { c.AccountToken = "" }, "account token is required"},
		{"sender", func(c *PostmarkConfig) { c.From = "" }, "sender email is required"},
		{"sender address", func(c *PostmarkConfig) { c.From = "nope" }, "valid address"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			sender, err := NewPostmarkSender(cfg)
			assert.Nil(t, sender)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPostmarkSenderSend(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Postmark-Server-Token")
		assert.Equal(t, "/email", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"To":"reader@example.com","SubmittedAt":"2026-10-19T10:00:00Z","MessageID":"abc","ErrorCode":0,"Message":"OK"}`))
	}))
	t.Cleanup(srv.Close)

	sender, err := NewPostmarkSender(PostmarkConfig{
		ServerToken:  "server-token",
		AccountToken: "account-token",
		From:         "me@example.com",
		Tag:          "preview",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), testMessage()))

	assert.Equal(t, "server-token", token)
	assert.Equal(t, "reader@example.com", got["To"])
	assert.Equal(t, "me@example.com", got["From"])
	assert.Equal(t, "me@example.com", got["ReplyTo"])
	assert.Equal(t, "Weekly notes", got["Subject"])
	assert.Equal(t, "preview", got["Tag"])
	assert.Equal(t, "<div><p>Hello</p></div>", got["HtmlBody"])
	assert.Equal(t, "Hello\n", got["TextBody"])
}

func TestPostmarkSenderReportsAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
	}))
	t.Cleanup(srv.Close)

	sender, err := NewPostmarkSender(PostmarkConfig{
		ServerToken:  "s",
		AccountToken: "a",
		From:         "me@example.com",
		BaseURL:      srv.URL,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, sender.Send(context.Background(), testMessage()), ErrFailedToSend)
}

func TestDirSenderWritesFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outbox")
	sender := NewDirSender(dir)
	sender.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, sender.Send(context.Background(), testMessage()))

	base := filepath.Join(dir, "2026_10_19_093000_weekly_notes")
	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Equal(t, "<div><p>Hello</p></div>", string(html))

	text, err := os.ReadFile(base + ".txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", string(text))

	var meta map[string]string
	raw, err := os.ReadFile(base + ".json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "reader@example.com", meta["to"])
	assert.Equal(t, "2026-10-19T09:30:00Z", meta["timestamp"])
}

func TestDirSenderRejectsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewDirSender(t.TempDir()).Send(ctx, testMessage())
	assert.ErrorIs(t, err, ErrFailedToSend)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello_world", sanitizeFilename("Hello World!"))
	assert.Equal(t, "message", sanitizeFilename("???"))
}

func TestNewPicksSender(t *testing.T) {
	t.Parallel()

	s, err := New(config.Delivery{OutboxDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DirSender{}, s)

	s, err = New(config.Delivery{
		PostmarkServerToken:  "s",
		PostmarkAccountToken: "a",
		SenderEmail:          "me@example.com",
	})
	require.NoError(t, err)
	assert.IsType(t, &PostmarkSender{}, s)

	_, err = New(config.Delivery{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
