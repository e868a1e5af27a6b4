package mailer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSendgrid(url string) *SendgridMailer {
	m := NewSendgridMailer("SG.test", "THPT Demo", "no-reply@example.com")
	m.host = url
	return m
}

func testMessage() Message {
	return Message{
		To:      mail.Address{Name: "Nguyễn An", Address: "an@example.com"},
		Subject: "Tài khoản",
		HTML:    "<p>hello</p>",
	}
}

func TestSendgridMailerPostsMessage(t *testing.T) {
	var auth, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, newTestSendgrid(srv.URL).Send(context.Background(), testMessage()))
	assert.Equal(t, "Bearer SG.test", auth)
	assert.Equal(t, "/v3/mail/send", path)
	assert.Contains(t, body, "an@example.com")
	assert.Contains(t, body, "[THPT Demo] Tài khoản")
}

func TestSendgridMailerRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
	}))
	defer srv.Close()

	err := newTestSendgrid(srv.URL).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestSendgridMailerHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := newTestSendgrid(srv.URL).Send(ctx, testMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSendgridMailerRequiresRecipient(t *testing.T) {
	err := newTestSendgrid("http://127.0.0.1:0").Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)
}
