package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"missing"}`, rec.Body.String())
}

func TestWantsHTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.False(t, WantsHTML(req))

	req.Header.Set("Accept", "text/html")
	assert.True(t, WantsHTML(req))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("HX-Request", "true")
	assert.True(t, WantsHTML(req))
}

func TestWantsHTMLNegotiation(t *testing.T) {
	cases := []struct {
		name   string
		accept string
		want   bool
	}{
		{"browser navigation", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", true},
		{"html with charset", "text/html; charset=utf-8", true},
		{"json client", "application/json", false},
		{"fetch default", "*/*", false},
		{"html refused", "application/json, text/html;q=0", false},
		{"garbage", ";;;", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Accept", tc.accept)
			assert.Equal(t, tc.want, WantsHTML(req))
		})
	}
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	require.NoError(t, SendSSEEvent(rec, rec, "message", map[string]string{"text": "hi"}))
	require.NoError(t, SendSSEComment(rec, rec, "ping"))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: message\ndata: {\"text\":\"hi\"}\n\n: ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSendSSEEventMarshalError(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Error(t, SendSSEEvent(rec, rec, "bad", make(chan int)))
	assert.Empty(t, rec.Body.String())
}
