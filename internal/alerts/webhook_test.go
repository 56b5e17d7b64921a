package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revpilot/revpilot/internal/config"
)

func TestSend_PostsTextPayload(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(config.AlertsConfig{Enabled: true, WebhookURL: server.URL, TimeoutSecs: 5})
	n.Send(context.Background(), "prop-1: CLASSIC_UNDERPRICING | APS 1.045")

	assert.Equal(t, "prop-1: CLASSIC_UNDERPRICING | APS 1.045", got["text"])
}

func TestSend_DisabledNeverCallsWebhook(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	n := NewNotifier(config.AlertsConfig{Enabled: false, WebhookURL: server.URL, TimeoutSecs: 5})
	n.Send(context.Background(), "should not be delivered")
	assert.False(t, called)

	// An enabled config without a URL is equally inert.
	n = NewNotifier(config.AlertsConfig{Enabled: true, TimeoutSecs: 5})
	n.Send(context.Background(), "nowhere to go")
	assert.False(t, called)
}

func TestSend_ServerErrorDoesNotPanicOrRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewNotifier(config.AlertsConfig{Enabled: true, WebhookURL: server.URL, TimeoutSecs: 5})
	n.Send(context.Background(), "summary")
	assert.Equal(t, 1, calls, "failed deliveries are dropped, not retried")
}
