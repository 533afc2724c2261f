package httpapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medicore-monitor/internal/events"
	"medicore-monitor/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupWebSocketServer(t *testing.T) (*httptest.Server, *events.Bus) {
	t.Helper()
	logger := zap.NewNop()
	bus := events.NewBus(16, logger)

	router := NewRouter(logger)
	router.RegisterMonitorRoutes(
		NewMonitorHandler(
			store.NewPatientStore(10),
			store.NewActivityLog(10, nil, logger),
			store.NewAlertLog(10),
			&fakeAnalyzer{},
			logger,
		),
		NewWebSocketHandler(bus, logger),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, bus
}

func TestWebSocket_ReceivesPublishedEvents(t *testing.T) {
	server, bus := setupWebSocketServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 等订阅生效再发布
	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	bus.Publish(events.EventAlertRaised, map[string]any{"id": "a1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event events.Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, events.EventAlertRaised, event.Name)
	payload, ok := event.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a1", payload["id"])
}

func TestWebSocket_DisconnectRemovesSubscriber(t *testing.T) {
	server, bus := setupWebSocketServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	// 客户端断开后订阅被清理
	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
