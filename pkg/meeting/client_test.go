package meeting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteLink(t *testing.T) {
	assert.Equal(t, "https://option.ai/join/m-1", InviteLink("https://option.ai", "m-1"))
	assert.Equal(t, "https://option.ai/join/m-1", InviteLink("https://option.ai/", "m-1"))
}

func TestClientCreate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/meetings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meetingId":"abc123"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "https://option.ai")
	h, err := c.Create(context.Background(), Config{
		Topic:        "Four-day week",
		Duration:     30,
		Participants: 6,
		Models:       []string{"GPT-4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", h.MeetingID)
	assert.Equal(t, "https://option.ai/join/abc123", h.InviteLink)

	assert.Equal(t, "Four-day week", got["topic"])
	assert.Equal(t, float64(30), got["duration"])
	assert.Equal(t, float64(6), got["participants"])
	assert.Equal(t, []any{"GPT-4"}, got["models"])
}

func TestClientCreateOmitsEmptyModels(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"meetingId":"x"}`))
	}))
	defer srv.Close()

	h, err := NewClient(srv.URL, "").Create(context.Background(), Config{Topic: "t", Duration: 5, Participants: 2})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/join/x", h.InviteLink, "origin defaults to the API base")
	_, ok := got["models"]
	assert.False(t, ok)
}

func TestClientCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"not found", http.StatusNotFound, ``},
		{"malformed body", http.StatusOK, `not json`},
		{"missing id", http.StatusOK, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			h, err := NewClient(srv.URL, "").Create(context.Background(), Config{Topic: "t", Duration: 5, Participants: 2})
			require.ErrorIs(t, err, ErrCreateFailed)
			assert.Nil(t, h)
		})
	}
}

func TestClientCreateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "").Create(context.Background(), Config{Topic: "t", Duration: 5, Participants: 2})
	require.ErrorIs(t, err, ErrCreateFailed)
}
