package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetActive(t *testing.T) {
	var got struct {
		Active bool `json:"active"`
	}
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/active", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewHTTPFactory(2 * time.Second).ForEndpoint(srv.URL)

	require.NoError(t, svc.SetActive(context.Background(), true))
	assert.True(t, got.Active)

	require.NoError(t, svc.SetActive(context.Background(), false))
	assert.False(t, got.Active)
	assert.Equal(t, 2, calls)
}

func TestSetActiveServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewHTTPFactory(2 * time.Second).ForEndpoint(srv.URL)

	err := svc.SetActive(context.Background(), true)
	assert.Error(t, err)
	// Best-effort contract: exactly one attempt, no retries.
	assert.Equal(t, 1, calls)
}

func TestSetActiveUnreachable(t *testing.T) {
	svc := NewHTTPFactory(200 * time.Millisecond).ForEndpoint("http://127.0.0.1:1")

	err := svc.SetActive(context.Background(), true)
	assert.Error(t, err)
}
