package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dkazakov/browser-relay/internal/event"
)

// wsSurface adapts one WebSocket connection to the surface.Surface
// interface. Writes are serialized; a write failure marks the surface
// dead and the registry drops it.
type wsSurface struct {
	id           string
	name         string
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
}

func newWSSurface(conn *websocket.Conn, name string, writeTimeout time.Duration) *wsSurface {
	if name == "" {
		name = "popup"
	}
	return &wsSurface{
		id:           uuid.New().String(),
		name:         name,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *wsSurface) ID() string   { return s.id }
func (s *wsSurface) Name() string { return s.name }

// Send delivers one event over the socket. Raw frames pass through
// verbatim; synthesized events are marshaled.
func (s *wsSurface) Send(ev event.Inbound) error {
	payload := []byte(ev.Raw)
	if len(payload) == 0 {
		var err error
		payload, err = json.Marshal(ev)
		if err != nil {
			return err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSurface) close() {
	s.conn.Close()
}

// readLoop consumes surface commands until the socket drops. The read
// error is the unregistration signal; the surface never survives it.
func (srv *Server) readLoop(sfc *wsSurface) {
	defer func() {
		srv.registry.Unregister(sfc)
		sfc.close()
	}()

	for {
		_, data, err := sfc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				srv.logger.Warn("surface read error", "surface", sfc.Name(), "error", err)
			} else {
				srv.logger.Debug("surface disconnected", "surface", sfc.Name())
			}
			return
		}
		srv.handleCommand(sfc, data)
	}
}

// handleCommand dispatches one inbound surface message.
func (srv *Server) handleCommand(sfc *wsSurface, data []byte) {
	var cmd event.SurfaceCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		srv.logger.Warn("malformed surface command", "surface", sfc.Name(), "error", err)
		return
	}

	switch cmd.Type {
	case event.CommandExecuteTask:
		// Fire and forget: the outcome reaches the surface as a broadcast
		// event, not as a reply on this read path.
		go func() {
			if err := srv.submitter.Submit(srv.baseCtx, cmd.Task); err != nil {
				srv.logger.Warn("task submission failed", "error", err)
			}
		}()
	default:
		srv.logger.Debug("unknown surface command", "type", cmd.Type)
	}
}
