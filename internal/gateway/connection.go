package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// writePump sends queued events to the socket and keeps the connection
// alive with pings. It owns all writes; nothing else touches the socket
// for writing.
func (sc *sessionConn) writePump(ctx context.Context) {
	ticker := time.NewTicker(sc.config.PingInterval)
	defer func() {
		ticker.Stop()
		sc.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			// Flush anything queued before the session ended, then close.
			for {
				select {
				case message := <-sc.send:
					sc.conn.SetWriteDeadline(time.Now().Add(sc.config.WriteTimeout))
					if err := sc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				default:
					sc.conn.SetWriteDeadline(time.Now().Add(sc.config.WriteTimeout))
					sc.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}

		case message := <-sc.send:
			sc.conn.SetWriteDeadline(time.Now().Add(sc.config.WriteTimeout))
			if err := sc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", sc.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			sc.conn.SetWriteDeadline(time.Now().Add(sc.config.WriteTimeout))
			if err := sc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", sc.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump consumes messages from the exam UI and dispatches start
// confirmations and visibility transitions. The session context is
// cancelled when the socket drops, which stops the engine's tick source
// so the terminal callback never fires against a torn-down view.
func (sc *sessionConn) readPump(cancel context.CancelFunc) {
	defer func() {
		cancel()
		sc.conn.Close()
	}()

	sc.conn.SetReadLimit(sc.config.MaxMessageSize)
	sc.conn.SetReadDeadline(time.Now().Add(sc.config.ReadTimeout))
	sc.conn.SetPongHandler(func(string) error {
		sc.conn.SetReadDeadline(time.Now().Add(sc.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := sc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", sc.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		sc.conn.SetReadDeadline(time.Now().Add(sc.config.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warn().
				Str("connection_id", sc.id).
				Msg("ignoring malformed client message")
			continue
		}

		switch msg.Type {
		case ClientMessageStart:
			select {
			case sc.startCh <- struct{}{}:
			default:
			}
		case ClientMessageVisibility:
			if msg.Visible {
				select {
				case sc.foregroundCh <- struct{}{}:
				default:
				}
			}
		default:
			log.Debug().
				Str("connection_id", sc.id).
				Str("message_type", msg.Type).
				Msg("unknown client message type - ignoring")
		}
	}
}
