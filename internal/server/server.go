package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/stagelink/platform/internal/config"
	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/pipeline"
	"github.com/stagelink/platform/internal/session"
	"github.com/stagelink/platform/internal/trace"
	"github.com/stagelink/platform/internal/transcription"
	"github.com/stagelink/platform/internal/wav"
)

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// wsConn adapts a websocket connection to the session registry.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, v any) error {
	return wsjson.Write(ctx, c.conn, v)
}

// Server handles the WebSocket control channel and the fragment upload
// endpoint, and dispatches pipeline events back to participants.
type Server struct {
	cfg         *config.Config
	registry    *session.Registry
	buffers     *session.Buffers
	pipe        *pipeline.Pipeline
	transcriber transcription.Transcriber

	mu         sync.RWMutex
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a server and starts its event dispatcher and buffer cleanup.
func New(cfg *config.Config, registry *session.Registry, buffers *session.Buffers, pipe *pipeline.Pipeline, transcriber transcription.Transcriber) *Server {
	s := &Server{
		cfg:         cfg,
		registry:    registry,
		buffers:     buffers,
		pipe:        pipe,
		transcriber: transcriber,
		rateLimits:  make(map[*websocket.Conn]*rateLimiter),
	}

	go s.dispatchEvents()
	go s.cleanupLoop()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/magic/chunk", s.handleChunk)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// The connection's joined slot, cleared from the registry on disconnect.
	var sessionID, connID string
	var role session.Role
	defer func() {
		if connID == "" {
			return
		}
		if destroyed := s.registry.Leave(sessionID, role, connID); destroyed {
			s.buffers.Remove(sessionID)
			log.Info("session destroyed", "session", sessionID)
		}
	}()

	adapter := &wsConn{conn: conn}

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "join":
			var join JoinMessage
			if err := json.Unmarshal(msg, &join); err != nil {
				continue
			}
			parsed, err := session.ParseRole(join.Role)
			if err != nil {
				log.Warn("join with unknown role", "role", join.Role)
				continue
			}
			// Clear any previous slot this connection held.
			if connID != "" {
				if destroyed := s.registry.Leave(sessionID, role, connID); destroyed {
					s.buffers.Remove(sessionID)
				}
			}
			sessionID, role = join.SessionID, parsed
			var ready bool
			connID, ready = s.registry.Join(sessionID, role, adapter)
			log.Info("participant joined", "session", sessionID, "role", role, "conn", connID)

			_ = adapter.Send(baseCtx, JoinedMessage{Type: "joined", SessionID: sessionID, Role: string(role)})
			if ready {
				s.registry.Broadcast(baseCtx, sessionID, ReadyMessage{Type: "ready"})
			}

		case "manual_start":
			var start ManualStartMessage
			if err := json.Unmarshal(msg, &start); err != nil {
				continue
			}
			s.buffers.ManualStart(start.SessionID, start.StartKeyword, start.EndKeyword, start.Language)
			log.Info("manual window open", "session", start.SessionID)

		case "manual_end":
			var end ManualEndMessage
			if err := json.Unmarshal(msg, &end); err != nil {
				continue
			}
			s.handleManualEnd(baseCtx, end)

		case "topic_searched":
			var ts TopicSearchedMessage
			if err := json.Unmarshal(msg, &ts); err != nil {
				continue
			}
			cleared := s.registry.ClearTopic(ts.SessionID)
			log.Info("topic cleared", "session", ts.SessionID, "topic", cleared)
		}
	}
}

func (s *Server) handleManualEnd(ctx context.Context, end ManualEndMessage) {
	log := trace.Logger(ctx)

	window, err := s.buffers.ManualEnd(end.SessionID, end.Language)
	if err != nil {
		log.Info("manual window close with no audio", "session", end.SessionID, "error", err)
		s.sendError(ctx, end.SessionID, "no_recording_error", apperrors.CodeOf(err))
		return
	}
	log.Info("manual window close", "session", end.SessionID, "fragments", len(window.Fragments))
	s.processWindow(ctx, window)
}

// processWindow splices the window's fragments and launches a pipeline run.
func (s *Server) processWindow(ctx context.Context, window *session.Window) {
	clip, err := wav.Combine(window.Fragments)
	if err != nil {
		trace.Logger(ctx).Error("fragment splice failed", "session", window.SessionID, "error", err)
		s.sendError(ctx, window.SessionID, "diarization_error", apperrors.CodeProcessingError)
		return
	}

	job := pipeline.Job{
		SessionID:   window.SessionID,
		Clip:        clip,
		Language:    window.Language,
		StartPhrase: window.StartPhrase,
		EndPhrase:   window.EndPhrase,
	}
	// Fire and forget; every failure surfaces as a pipeline event.
	go s.pipe.Run(context.WithoutCancel(ctx), job)
}

// dispatchEvents routes pipeline events to the session's participants.
func (s *Server) dispatchEvents() {
	for evt := range s.pipe.Events() {
		ctx := context.Background()
		switch evt.Kind {
		case pipeline.EventTranscriptPreview:
			_ = s.registry.Send(ctx, evt.SessionID, session.RolePerformer, TranscriptMessage{
				Type:      "magic_transcript",
				Text:      evt.Text,
				Timestamp: nowMillis(),
			})

		case pipeline.EventResult:
			s.registry.SetTopic(evt.SessionID, evt.Topic)
			now := nowMillis()
			_ = s.registry.Send(ctx, evt.SessionID, session.RolePerformer, SummaryMessage{
				Type: "summarize_complete", Summary: evt.Summary, Topic: evt.Topic, Timestamp: now,
			})
			_ = s.registry.Send(ctx, evt.SessionID, session.RoleObserver, SummaryMessage{
				Type: "summary", Summary: evt.Summary, Topic: evt.Topic, Timestamp: now,
			})

		case pipeline.EventDiarizationError:
			s.sendError(ctx, evt.SessionID, "diarization_error", evt.Code)

		case pipeline.EventRecordingError:
			s.sendError(ctx, evt.SessionID, "no_recording_error", evt.Code)
		}
	}
}

func (s *Server) sendError(ctx context.Context, sessionID, msgType string, code apperrors.Code) {
	_ = s.registry.Send(ctx, sessionID, session.RolePerformer, ErrorMessage{
		Type:      msgType,
		Error:     code.WireCode(),
		Message:   code.UserMessage(),
		Timestamp: nowMillis(),
	})
}

func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.buffers.CleanupStale()
	}
}
