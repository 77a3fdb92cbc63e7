package session

import (
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/trigger"
)

// Keyword identifies which trigger phrase a fragment matched.
type Keyword string

const (
	KeywordNone  Keyword = ""
	KeywordStart Keyword = "start"
	KeywordEnd   Keyword = "end"
)

// Fragment is one audio submission with its metadata.
type Fragment struct {
	SessionID   string
	Audio       []byte
	Transcript  string
	StartPhrase string
	EndPhrase   string
	Language    string
	// Active is the client's view of whether a window is open. A start
	// trigger only opens a window when the client is not already active,
	// and an end trigger only closes one when it is.
	Active bool
}

// Window is a closed recording window ready for splicing and processing.
// Ownership of Fragments transfers to the caller.
type Window struct {
	SessionID   string
	Fragments   [][]byte
	Language    string
	StartPhrase string
	EndPhrase   string
}

// Outcome reports what a fragment did to the session's buffer.
type Outcome struct {
	Keyword  Keyword
	Buffered bool
	// Window is non-nil when this fragment closed the recording window.
	Window *Window
}

// bufferState is the per-session recording state machine.
type bufferState struct {
	mu          sync.Mutex
	fragments   [][]byte
	recording   bool
	startPhrase string
	endPhrase   string
	language    string
	lastSeen    time.Time
}

// absorb overwrites phrases and language with the latest non-empty values.
func (b *bufferState) absorb(startPhrase, endPhrase, language string) {
	if startPhrase != "" {
		b.startPhrase = startPhrase
	}
	if endPhrase != "" {
		b.endPhrase = endPhrase
	}
	if language != "" {
		b.language = language
	}
}

func (b *bufferState) window(sessionID string) *Window {
	w := &Window{
		SessionID:   sessionID,
		Fragments:   b.fragments,
		Language:    b.language,
		StartPhrase: b.startPhrase,
		EndPhrase:   b.endPhrase,
	}
	b.fragments = nil
	return w
}

// Buffers owns every session's audio buffer state.
type Buffers struct {
	mu     sync.Mutex
	states map[string]*bufferState
	ttl    time.Duration
}

// NewBuffers creates the buffer table.
func NewBuffers(ttl time.Duration) *Buffers {
	if ttl <= 0 {
		ttl = StaleBufferTTL
	}
	return &Buffers{
		states: make(map[string]*bufferState),
		ttl:    ttl,
	}
}

func (bs *Buffers) state(sessionID string) *bufferState {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	b, ok := bs.states[sessionID]
	if !ok {
		b = &bufferState{}
		bs.states[sessionID] = b
	}
	b.lastSeen = time.Now()
	return b
}

// HandleFragment runs one fragment through the state machine. Fragments that
// arrive outside a window and match no trigger are discarded.
func (bs *Buffers) HandleFragment(f Fragment) Outcome {
	b := bs.state(f.SessionID)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.absorb(f.StartPhrase, f.EndPhrase, f.Language)
	det := trigger.Scan(f.Transcript, b.startPhrase, b.endPhrase)

	switch {
	case det.HasEnd && f.Active:
		// End-trigger fragment is part of the window.
		b.fragments = append(b.fragments, f.Audio)
		b.recording = false
		return Outcome{Keyword: KeywordEnd, Buffered: true, Window: b.window(f.SessionID)}

	case det.HasStart && !f.Active:
		// A new start always discards unflushed fragments.
		b.fragments = [][]byte{f.Audio}
		b.recording = true
		return Outcome{Keyword: KeywordStart, Buffered: true}

	case b.recording:
		b.fragments = append(b.fragments, f.Audio)
		return Outcome{Buffered: true}

	default:
		return Outcome{}
	}
}

// ManualStart opens a window without a trigger phrase. Any buffered fragments
// from a prior window are discarded.
func (bs *Buffers) ManualStart(sessionID, startPhrase, endPhrase, language string) {
	b := bs.state(sessionID)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.absorb(startPhrase, endPhrase, language)
	b.fragments = nil
	b.recording = true
}

// ManualEnd closes the window without a trigger phrase. Returns the window for
// processing, or an error distinguishing "never started" from "started but
// nothing captured".
func (bs *Buffers) ManualEnd(sessionID, language string) (*Window, error) {
	b := bs.state(sessionID)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.absorb("", "", language)
	if !b.recording {
		return nil, apperrors.New(apperrors.CodeMagicNotStarted, "no recording window open")
	}
	b.recording = false
	if len(b.fragments) == 0 {
		return nil, apperrors.New(apperrors.CodeNoChunksCaptured, "recording window captured no audio")
	}
	return b.window(sessionID), nil
}

// Recording reports whether a window is open for the session.
func (bs *Buffers) Recording(sessionID string) bool {
	b := bs.state(sessionID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recording
}

// Remove drops a session's buffer state.
func (bs *Buffers) Remove(sessionID string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	delete(bs.states, sessionID)
}

// CleanupStale removes buffers for sessions idle past the TTL.
func (bs *Buffers) CleanupStale() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	threshold := time.Now().Add(-bs.ttl)
	for key, b := range bs.states {
		if b.lastSeen.Before(threshold) {
			delete(bs.states, key)
			slog.Debug("cleaned up stale session buffer", "session", key)
		}
	}
}
