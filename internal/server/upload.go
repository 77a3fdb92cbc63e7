package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stagelink/platform/internal/session"
	"github.com/stagelink/platform/internal/trace"
)

// handleChunk accepts one multipart audio fragment, transcribes it, and runs
// it through the session's recording state machine.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "handle_chunk")
	defer span.End()
	log := trace.Logger(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "could not parse multipart form")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "no audio file in request")
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "processing_error", "could not read audio file")
		return
	}

	sessionID := r.FormValue("sessionId")
	language := r.FormValue("language")
	if language == "" {
		language = s.cfg.DefaultLanguage
	}
	active := r.FormValue("isMagicActive") == "true"

	span.SetAttr("session", sessionID)
	span.SetAttr("chunk", r.FormValue("chunkNumber"))
	span.SetAttr("bytes", len(audio))

	transcript, err := s.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		log.Error("fragment transcription failed", "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "processing_error", "fragment transcription failed")
		return
	}

	outcome := s.buffers.HandleFragment(session.Fragment{
		SessionID:   sessionID,
		Audio:       audio,
		Transcript:  transcript,
		StartPhrase: r.FormValue("startKeyword"),
		EndPhrase:   r.FormValue("endKeyword"),
		Language:    language,
		Active:      active,
	})

	if outcome.Keyword != session.KeywordNone {
		log.Info("trigger phrase detected", "session", sessionID, "keyword", outcome.Keyword)
		_ = s.registry.Send(ctx, sessionID, session.RolePerformer, KeywordDetectedMessage{
			Type:       "keyword_detected",
			Keyword:    string(outcome.Keyword),
			Transcript: transcript,
			Timestamp:  nowMillis(),
		})
	}

	if !outcome.Buffered && transcript != "" {
		// Live transcript for fragments outside a recording window.
		_ = s.registry.Send(ctx, sessionID, session.RolePerformer, TranscriptMessage{
			Type:      "transcript",
			Text:      transcript,
			Timestamp: nowMillis(),
		})
	}

	if outcome.Window != nil {
		s.processWindow(ctx, outcome.Window)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ChunkResponse{
		Success:         true,
		Transcript:      transcript,
		KeywordDetected: outcome.Keyword != session.KeywordNone,
		Keyword:         string(outcome.Keyword),
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
