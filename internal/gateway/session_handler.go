package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rmarchetti/examclock/internal/countdown"
	"github.com/rmarchetti/examclock/internal/session"
	"github.com/rmarchetti/examclock/internal/timerstore"
)

// SessionHandler upgrades exam-page connections and drives one countdown
// session per connection: resumption decision, start confirmation,
// per-second ticks, visibility reconciliation, and the terminal time-up
// event. Two tabs on the same attempt get two independent engines that
// converge on the same stored start instant.
type SessionHandler struct {
	guard    *session.Guard
	store    timerstore.Store
	clock    countdown.Clock
	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(guard *session.Guard, store timerstore.Store, clock countdown.Clock, config ConnectionConfig) *SessionHandler {
	return &SessionHandler{
		guard: guard,
		store: store,
		clock: clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// sessionConn is one exam UI connection and the countdown state bound to
// its lifetime.
type sessionConn struct {
	id      string
	handler *SessionHandler
	config  ConnectionConfig
	conn    *websocket.Conn

	examID    uuid.UUID
	attemptID uuid.UUID

	send         chan []byte
	startCh      chan struct{}
	foregroundCh chan struct{}

	engine     *countdown.Engine
	reconciler *countdown.Reconciler
}

// HandleExamSession handles a WebSocket connection for one exam entry.
func (h *SessionHandler) HandleExamSession(w http.ResponseWriter, r *http.Request) {
	examIDStr := r.URL.Query().Get("exam_id")
	if examIDStr == "" {
		http.Error(w, "exam_id is required", http.StatusBadRequest)
		return
	}

	examID, err := uuid.Parse(examIDStr)
	if err != nil {
		http.Error(w, "invalid exam_id format", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	sc := &sessionConn{
		id:           uuid.New().String(),
		handler:      h,
		config:       h.config,
		conn:         conn,
		examID:       examID,
		send:         make(chan []byte, 256),
		startCh:      make(chan struct{}, 1),
		foregroundCh: make(chan struct{}, 1),
	}

	// The session outlives this HTTP handler, so it gets its own context
	// cancelled by socket teardown rather than by the request.
	ctx, cancel := context.WithCancel(context.Background())

	go sc.writePump(ctx)
	go sc.readPump(cancel)
	go sc.run(ctx, cancel)

	log.Info().
		Str("connection_id", sc.id).
		Str("exam_id", examID.String()).
		Msg("exam session connection established")
}

// run executes the session lifecycle for one connection.
func (sc *sessionConn) run(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		if sc.engine != nil {
			sc.engine.Stop()
		}
		cancel()
	}()

	decision, err := sc.handler.guard.Enter(ctx, sc.examID)
	if err != nil {
		log.Error().
			Err(err).
			Str("exam_id", sc.examID.String()).
			Msg("session entry failed")
		sc.sendEvent(EventTypeError, ErrorPayload{Message: "exam could not be loaded"})
		return
	}
	sc.attemptID = decision.Attempt.ID

	sc.sendEvent(EventTypeSessionState, SessionStatePayload{
		Route:     decision.Route,
		Status:    string(decision.Attempt.Status),
		TotalSec:  decision.Attempt.TotalTimeSec,
		StartedAt: decision.StartedAt,
		Countdown: decision.Snapshot,
	})

	switch decision.Route {
	case session.RouteClosed:
		return

	case session.RouteResume, session.RouteExpired:
		// Resume (or surface expiry) directly from the stored start. An
		// already-expired record fires the terminal event synchronously
		// inside startCountdown, before any tick.
		sc.startCountdown(ctx, decision.Attempt.TotalTimeSec, *decision.StartedAt)

	case session.RouteStartScreen:
		select {
		case <-ctx.Done():
			return
		case <-sc.startCh:
		}

		start, err := sc.handler.guard.Begin(ctx, sc.attemptID)
		if err != nil {
			log.Error().
				Err(err).
				Str("attempt_id", sc.attemptID.String()).
				Msg("failed to begin countdown")
			sc.sendEvent(EventTypeError, ErrorPayload{Message: "countdown could not be started"})
			return
		}
		sc.sendEvent(EventTypeCountdownStarted, CountdownStartedPayload{
			StartedAt: start,
			TotalSec:  decision.Attempt.TotalTimeSec,
		})
		sc.startCountdown(ctx, decision.Attempt.TotalTimeSec, start)
	}

	// Foreground transitions reconcile against the store for as long as
	// the connection lives.
	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.foregroundCh:
			if sc.reconciler == nil {
				continue
			}
			snap := sc.reconciler.OnForeground(ctx)
			sc.sendEvent(EventTypeTimerReconciled, tickPayload(snap, sc.handler.clock.Now()))
		}
	}
}

// startCountdown spins up the engine for this connection. The expired
// callback is a one-shot per engine instance; it reaches the UI as a
// single TimeExpired event no matter which path hit zero first.
func (sc *sessionConn) startCountdown(ctx context.Context, totalSec int, start time.Time) {
	sc.engine = countdown.NewEngine(countdown.Config{
		AttemptID: sc.attemptID,
		TotalSec:  totalSec,
		Start:     start,
		Clock:     sc.handler.clock,
		OnExpire: func() {
			sc.sendEvent(EventTypeTimeExpired, TimeExpiredPayload{ExpiredAt: sc.handler.clock.Now()})
		},
		OnTick: func(snap countdown.Snapshot) {
			sc.sendEvent(EventTypeTimerTick, tickPayload(snap, sc.handler.clock.Now()))
		},
	})
	sc.reconciler = countdown.NewReconciler(sc.handler.store, sc.engine, sc.attemptID)

	go sc.engine.Run(ctx)
}

// sendEvent queues an event for the write pump, dropping it if the
// connection is too slow to keep up.
func (sc *sessionConn) sendEvent(eventType EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		return
	}

	event := ExamEvent{
		ID:        uuid.New().String(),
		AttemptID: sc.attemptID.String(),
		Type:      eventType,
		Timestamp: sc.handler.clock.Now(),
		Data:      data,
	}
	message, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event")
		return
	}

	select {
	case sc.send <- message:
	default:
		log.Warn().
			Str("connection_id", sc.id).
			Str("event_type", string(eventType)).
			Msg("send buffer full, dropping event")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/exam", h.HandleExamSession)
}
