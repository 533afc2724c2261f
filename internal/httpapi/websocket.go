package httpapi

import (
	"net/http"
	"time"

	"medicore-monitor/internal/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler 将事件总线的事件推送给浏览器
type WebSocketHandler struct {
	bus    *events.Bus
	logger *zap.Logger
}

func NewWebSocketHandler(bus *events.Bus, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		bus:    bus,
		logger: logger,
	}
}

// Serve 升级连接并转发事件，直到客户端断开
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	h.logger.Info("WebSocket client connected", zap.String("remote", r.RemoteAddr))

	// 读取泵：只为感知客户端断开，丢弃入站消息
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			h.logger.Debug("WebSocket client disconnected", zap.String("remote", r.RemoteAddr))
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
