package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"chat-relay/runtime"
)

// Handler upgrades HTTP requests and wires each connection into the session
// registry and the router.
type Handler struct {
	registry       *runtime.Registry
	router         *runtime.Router
	presence       *runtime.Presence
	log            *slog.Logger
	upgrader       websocket.Upgrader
	sendBufferSize int
	maxMessageSize int64
}

func NewHandler(
	registry *runtime.Registry,
	router *runtime.Router,
	presence *runtime.Presence,
	log *slog.Logger,
	sendBufferSize int,
	maxMessageSize int64,
) *Handler {
	return &Handler{
		registry: registry,
		router:   router,
		presence: presence,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// clients connect from arbitrary origins, same as the rest of
			// the HTTP surface
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sendBufferSize: sendBufferSize,
		maxMessageSize: maxMessageSize,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClient(conn, h.log, h.sendBufferSize, h.maxMessageSize)
	session := h.registry.Register(client)
	h.log.Info("connection opened", "session", session.ID, "remote", r.RemoteAddr)

	go client.writePump()
	go client.readPump(
		func(raw []byte) { h.router.Dispatch(session, raw) },
		func() {
			if h.registry.Unregister(session) {
				h.log.Info("connection closed", "session", session.ID, "email", session.Email)
				h.presence.Broadcast()
			}
		},
	)
}
