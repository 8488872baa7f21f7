// Package net exposes the HTTP surface: the websocket upgrade endpoint plus
// health and diagnostics.
package net

import (
	"encoding/json"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "fog-and-fang/server"
	"fog-and-fang/server/internal/net/ws"
)

// HTTPHandlerConfig tunes the HTTP surface.
type HTTPHandlerConfig struct {
	Logger *slog.Logger
}

// NewHTTPHandler builds the mux for the game server.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *nethttp.Request) bool { return true },
	}
	sessions := ws.NewHandler(hub, logger)

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		go sessions.Serve(conn)
	})

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := map[string]any{
			"status":     "ok",
			"serverTime": time.Now().UnixMilli(),
			"tickRate":   server.TickRate(),
			"state":      hub.DiagnosticsSnapshot(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	return mux
}
