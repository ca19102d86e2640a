package codec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsMessageContent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, "test-key", "test-model", 5*time.Second, nil)
	got, err := tr.Complete(context.Background(), CompletionRequest{System: "sys", User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestCompleteSurfacesStatusCode(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
		{"bad request", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			tr := NewHTTPTransport(srv.URL, "", "m", 5*time.Second, nil)
			_, err := tr.Complete(context.Background(), CompletionRequest{User: "hi"})
			var terr *TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.status, terr.StatusCode)
			assert.False(t, terr.Timeout)
		})
	}
}

func TestCompleteNetworkFailure(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	tr := NewHTTPTransport(url, "", "m", time.Second, nil)
	_, err := tr.Complete(context.Background(), CompletionRequest{User: "hi"})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.StatusCode)
}

func TestCompleteMalformedBodyIsNotTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL, "", "m", 5*time.Second, nil)
	_, err := tr.Complete(context.Background(), CompletionRequest{User: "hi"})
	require.Error(t, err)
	var terr *TransportError
	assert.False(t, errors.As(err, &terr))
}
