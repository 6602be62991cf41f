package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
)

func TestExchangePostsTurn(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Drink water and rest.","history":[{"sender":"user","text":"fever"},{"sender":"bot","text":"Drink water and rest."}]}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL+"/", time.Second, nil)
	resp, err := tr.Exchange(context.Background(), chat.Request{
		Message: "fever",
		History: []chat.Message{chat.BotMessage("hi")},
	})
	require.NoError(t, err)

	assert.Equal(t, "fever", got["message"])
	assert.Equal(t, []any{map[string]any{"sender": "bot", "text": "hi"}}, got["history"])
	assert.Equal(t, "Drink water and rest.", resp.Response)
	require.Len(t, resp.History, 2)
	assert.Equal(t, chat.UserMessage("fever"), resp.History[0])
}

func TestExchangeSendsEmptyHistoryArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport(srv.URL, 0, nil).Exchange(context.Background(), chat.Request{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw["history"]))
	assert.Nil(t, resp.History)
}

func TestExchangeFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrUnexpectedStatus},
		{"not found", http.StatusNotFound, ``, ErrUnexpectedStatus},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrMalformedResponse},
		{"missing response", http.StatusOK, `{"history":[]}`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPTransport(srv.URL, time.Second, nil).Exchange(context.Background(), chat.Request{Message: "hi"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExchangeHonoursContext(t *testing.T) {
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-unblock:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(unblock)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPTransport(srv.URL, 0, nil).Exchange(ctx, chat.Request{Message: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExchangeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(url, time.Second, nil).Exchange(context.Background(), chat.Request{Message: "hi"})
	assert.Error(t, err)
}
