package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pixel-editor/backend/internal/project"
)

// WebSocket message types for the project event stream
const (
	// Client -> Server messages
	MsgTypePing        = "ping"
	MsgTypeDraw        = "draw"
	MsgTypeErase       = "erase"
	MsgTypeLine        = "line"
	MsgTypeSelectColor = "select:color"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "event"
	MsgTypeAck       = "ack"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
	MsgTypeClosed    = "closed"
)

// DefaultEventBufferSize is the number of outgoing messages queued per
// connection before events are dropped.
const DefaultEventBufferSize = 64

// Connection timing. pingPeriod must be shorter than pongWait.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSMessage is the envelope for every WebSocket message.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSPointPayload is sent with draw and erase commands.
type WSPointPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WSLinePayload is sent with line commands.
type WSLinePayload struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// WSColorPayload is sent with select:color commands.
type WSColorPayload struct {
	Index int `json:"index"`
}

// WSAckResponse reports the outcome of a command.
type WSAckResponse struct {
	Changed int `json:"changed"`
}

// WSErrorResponse reports a failed command.
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams project events and accepts drawing commands.
type WebSocketHandler struct {
	handler    *Handler
	upgrader   websocket.Upgrader
	bufferSize int
	pingPeriod time.Duration
	pongWait   time.Duration
	now        func() time.Time
}

// NewWebSocketHandler creates a new WebSocket event handler.
func NewWebSocketHandler(h *Handler, bufferSize int) *WebSocketHandler {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}
	return &WebSocketHandler{
		handler: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		bufferSize: bufferSize,
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
		now:        time.Now,
	}
}

// wsConn serializes writes to one connection through a single goroutine.
type wsConn struct {
	ws         *websocket.Conn
	out        chan WSMessage
	stop       chan struct{} // closed when the handler returns
	dead       chan struct{} // closed when writeLoop exits
	pingPeriod time.Duration
}

func newWSConn(ws *websocket.Conn, bufferSize int, ping time.Duration) *wsConn {
	return &wsConn{
		ws:         ws,
		out:        make(chan WSMessage, bufferSize),
		stop:       make(chan struct{}),
		dead:       make(chan struct{}),
		pingPeriod: ping,
	}
}

// tryQueue enqueues msg without blocking and reports whether it was queued.
func (c *wsConn) tryQueue(msg WSMessage) bool {
	select {
	case <-c.dead:
		return false
	default:
	}
	select {
	case c.out <- msg:
		return true
	case <-c.dead:
		return false
	default:
		return false
	}
}

// queue enqueues msg, waiting for room unless the connection is going away.
func (c *wsConn) queue(msg WSMessage) {
	select {
	case c.out <- msg:
	case <-c.dead:
	case <-c.stop:
	}
}

// writeLoop owns all writes to ws. A failed or timed out write closes the
// connection, which also ends the read loop.
func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		close(c.dead)
	}()

	for {
		select {
		case msg := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
				return
			}
			if msg.Type == MsgTypeClosed {
				c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.stop:
			return
		}
	}
}

// HandleWebSocket upgrades the connection and streams events of the
// project named by the id path parameter.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	id := c.Param("id")
	if _, ok := wsh.handler.sessions.Get(id); !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(wsh.pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsh.pongWait))
	})

	conn := newWSConn(ws, wsh.bufferSize, wsh.pingPeriod)
	go conn.writeLoop()
	defer func() {
		close(conn.stop)
		<-conn.dead
	}()

	unsubscribe, err := wsh.handler.sessions.Subscribe(id, func(ev project.Event) {
		msg := WSMessage{
			Type:      MsgTypeEvent,
			ID:        id,
			Payload:   mustJSON(ev),
			Timestamp: wsh.now().UnixMilli(),
		}
		if !conn.tryQueue(msg) {
			fmt.Printf("[WebSocket %s] Dropped %s event, client too slow\n", shortID(id), ev.Kind)
		}
	})
	if err != nil {
		// Session closed between lookup and upgrade.
		conn.queue(wsh.errorMessage(err.Error(), "NOT_FOUND"))
		return nil
	}
	defer unsubscribe()

	done, err := wsh.handler.sessions.Done(id)
	if err != nil {
		conn.queue(wsh.errorMessage(err.Error(), "NOT_FOUND"))
		return nil
	}
	go func() {
		select {
		case <-done:
			fmt.Printf("[WebSocket %s] Session closed, disconnecting client\n", shortID(id))
			conn.queue(WSMessage{
				Type:      MsgTypeClosed,
				ID:        id,
				Payload:   mustJSON(WSErrorResponse{Message: "session closed", Code: "SESSION_CLOSED"}),
				Timestamp: wsh.now().UnixMilli(),
			})
		case <-conn.dead:
		case <-conn.stop:
		}
	}()

	fmt.Printf("[WebSocket %s] Client connected\n", shortID(id))
	conn.queue(WSMessage{Type: MsgTypeConnected, ID: id, Timestamp: wsh.now().UnixMilli()})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[WebSocket %s] Connection error: %v\n", shortID(id), err)
			}
			break
		}
		ws.SetReadDeadline(time.Now().Add(wsh.pongWait))
		wsh.handler.sessions.Touch(id)
		conn.queue(wsh.dispatch(id, msg))
	}

	fmt.Printf("[WebSocket %s] Client disconnected\n", shortID(id))
	return nil
}

// dispatch applies one client command and returns the reply.
func (wsh *WebSocketHandler) dispatch(id string, msg WSMessage) WSMessage {
	if msg.Type == MsgTypePing {
		return WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: wsh.now().UnixMilli()}
	}

	var apply func(*project.Store) int
	switch msg.Type {
	case MsgTypeDraw, MsgTypeErase:
		var p WSPointPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return wsh.errorMessage("Invalid point payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		erase := msg.Type == MsgTypeErase
		apply = func(s *project.Store) int {
			var changed bool
			if erase {
				changed = s.ErasePixel(p.X, p.Y)
			} else {
				changed = s.DrawPixel(p.X, p.Y)
			}
			if changed {
				return 1
			}
			return 0
		}
	case MsgTypeLine:
		var l WSLinePayload
		if err := json.Unmarshal(msg.Payload, &l); err != nil {
			return wsh.errorMessage("Invalid line payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		limit := 2 * wsh.handler.maxCanvasSize
		if abs(l.X1-l.X0) > limit || abs(l.Y1-l.Y0) > limit {
			return wsh.errorMessage("line too long", "BAD_REQUEST")
		}
		apply = func(s *project.Store) int {
			return s.DrawLine(l.X0, l.Y0, l.X1, l.Y1)
		}
	case MsgTypeSelectColor:
		var p WSColorPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return wsh.errorMessage("Invalid color payload: "+err.Error(), "INVALID_PAYLOAD")
		}
		apply = func(s *project.Store) int {
			if s.SelectColor(p.Index) {
				return 1
			}
			return 0
		}
	default:
		return wsh.errorMessage("Unknown message type: "+msg.Type, "INVALID_TYPE")
	}

	var changed int
	err := wsh.handler.sessions.With(id, func(s *project.Store) error {
		changed = apply(s)
		return nil
	})
	if err != nil {
		apiErr := FromError(err)
		return wsh.errorMessage(apiErr.Message, apiErr.Code)
	}
	return WSMessage{
		Type:      MsgTypeAck,
		ID:        msg.ID,
		Payload:   mustJSON(WSAckResponse{Changed: changed}),
		Timestamp: wsh.now().UnixMilli(),
	}
}

func (wsh *WebSocketHandler) errorMessage(message, code string) WSMessage {
	return WSMessage{
		Type:      MsgTypeError,
		Payload:   mustJSON(WSErrorResponse{Message: message, Code: code}),
		Timestamp: wsh.now().UnixMilli(),
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
