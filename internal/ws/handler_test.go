package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/solardesk/shell/internal/domain/bundle"
	"github.com/solardesk/shell/internal/domain/home"
	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/solardesk/shell/internal/wm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyResolver struct{}

func (emptyResolver) GetActivity(string) (*bundle.Info, bool) { return nil, false }

func newStreamFixture(t *testing.T) (*home.Registry, *wm.Tracker, *websocket.Conn, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNop()
	tracker := wm.NewTracker(log)
	registry := home.NewRegistry(tracker, emptyResolver{}, nil, log)

	hub := NewHub(log)
	hub.Attach(registry)

	r := gin.New()
	r.GET("/stream", hub.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Len() == 1 },
		time.Second, 10*time.Millisecond)

	return registry, tracker, conn, hub
}

func TestStreamDeliversSignals(t *testing.T) {
	registry, tracker, conn, _ := newStreamFixture(t)

	w := &wm.Window{XID: 1, Type: wm.WindowNormal, ActivityID: "a1"}
	tracker.ApplyOpened(w)
	registry.HandleWindowOpened(w)

	// Opening the first window emits added, started, pending-changed.
	expected := []home.Signal{
		home.SignalActivityAdded,
		home.SignalActivityStarted,
		home.SignalPendingChanged,
	}

	for _, want := range expected {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, want, frame.Signal)
		require.NotNil(t, frame.Activity)
		assert.Equal(t, "a1", frame.Activity.ActivityID)
	}
}

func TestStreamNilPayload(t *testing.T) {
	registry, tracker, conn, _ := newStreamFixture(t)

	w := &wm.Window{XID: 1, Type: wm.WindowNormal, ActivityID: "a1"}
	tracker.ApplyOpened(w)
	registry.HandleWindowOpened(w)

	// Drain the three open signals.
	for i := 0; i < 3; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}

	tracker.ApplyClosed(1)
	registry.HandleWindowClosed(w)

	// pending-changed arrives with a null activity, then activity-removed
	// with the record.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, home.SignalPendingChanged, frame.Signal)
	assert.Nil(t, frame.Activity)

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, home.SignalActivityRemoved, frame.Signal)
	require.NotNil(t, frame.Activity)
	assert.Equal(t, "a1", frame.Activity.ActivityID)
}

func TestHubRemoveOnDisconnect(t *testing.T) {
	_, _, conn, hub := newStreamFixture(t)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.Len() == 0 },
		2*time.Second, 10*time.Millisecond)
}
