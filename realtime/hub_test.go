package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/logging"
)

var _ catalog.Notifier = (*Hub)(nil)

func TestHub_BroadcastsMediaChanged(t *testing.T) {
	hub := NewHub(logging.Discard())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	hub.MediaChanged(catalog.ChangeEvent{Operation: "add", Authority: "com.local", Count: 2})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, EventMediaChanged, event.Type)
	assert.Equal(t, "add", event.Operation)
	assert.Equal(t, "com.local", event.Authority)
	assert.Equal(t, 2, event.Count)
	assert.NotZero(t, event.Timestamp)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 5*time.Second, 5*time.Millisecond)
}
