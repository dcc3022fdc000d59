package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 16
	wsReadLimit  = 512
)

// WSHub manages WebSocket connections and room-based message delivery.
// Rooms are session scoped ("session:{id}"); with Kafka enabled every API
// instance relays the notifications topic into its own hub.
type WSHub struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]*WSConn // room -> connID -> conn
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// WSConn is one subscribed client. Send is drained by the connection's writer.
type WSConn struct {
	ID        string
	SessionID string
	Send      chan []byte
}

// WSMessage is the payload sent over WebSocket.
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewWSHub creates a hub. allowOrigin decides cross-origin upgrades; nil allows all.
func NewWSHub(logger *slog.Logger, allowOrigin func(r *http.Request) bool) *WSHub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &WSHub{
		rooms:    make(map[string]map[string]*WSConn),
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		logger:   logger,
	}
}

// SessionRoom names the room of a session.
func SessionRoom(sessionID string) string { return "session:" + sessionID }

// Join adds a connection to a room.
func (h *WSHub) Join(room string, conn *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*WSConn)
	}
	h.rooms[room][conn.ID] = conn
}

// Leave removes a connection from a room.
func (h *WSHub) Leave(room string, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[room]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish sends a message to all connections in a room. Slow consumers drop messages.
func (h *WSHub) Publish(room string, event string, data any) {
	payload, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		h.logger.Error("ws marshal error", "error", err, "room", room, "event", event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.rooms[room] {
		select {
		case conn.Send <- payload:
		default:
			h.logger.Warn("ws send buffer full", "conn_id", conn.ID, "session_id", conn.SessionID, "room", room)
		}
	}
}

// PublishToSession publishes to a session-scoped room.
func (h *WSHub) PublishToSession(sessionID string, event string, data any) {
	h.Publish(SessionRoom(sessionID), event, data)
}

// ServeSession upgrades the request and streams the session room to the client
// until it disconnects, ctx is cancelled or the hub shuts down.
func (h *WSHub) ServeSession(ctx context.Context, w http.ResponseWriter, r *http.Request, sessionID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &WSConn{ID: uuid.NewString(), SessionID: sessionID, Send: make(chan []byte, wsSendBuffer)}
	room := SessionRoom(sessionID)
	h.Join(room, conn)
	defer h.Leave(room, conn.ID)
	h.logger.Info("ws connected", "conn_id", conn.ID, "session_id", sessionID)

	closed := make(chan struct{})
	go readPump(ws, closed)
	h.writePump(ctx, ws, conn, closed)

	h.logger.Info("ws disconnected", "conn_id", conn.ID, "session_id", sessionID)
	return nil
}

// readPump discards client frames and keeps the read deadline alive on pongs.
func readPump(ws *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	ws.SetReadLimit(wsReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHub) writePump(ctx context.Context, ws *websocket.Conn, conn *WSConn, closed <-chan struct{}) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			writeClose(ws)
			return
		case msg, ok := <-conn.Send:
			if !ok {
				writeClose(ws)
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("ws write failed", "conn_id", conn.ID, "session_id", conn.SessionID, "error", err)
				return
			}
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeClose(ws *websocket.Conn) {
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(wsWriteWait))
}

// ConnectionCount returns the total number of active connections.
func (h *WSHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, conns := range h.rooms {
		count += len(conns)
	}
	return count
}

// RoomCount returns the number of active rooms.
func (h *WSHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Shutdown closes every connection's send channel, which makes its writer
// send a close frame, and empties the hub.
func (h *WSHub) Shutdown(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, conns := range h.rooms {
		for _, conn := range conns {
			close(conn.Send)
		}
		delete(h.rooms, room)
	}
}
