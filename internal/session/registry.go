package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/stagelink/platform/internal/errors"
	"github.com/stagelink/platform/internal/syncx"
)

// Role is a participant's slot in the session.
type Role string

const (
	RolePerformer Role = "performer"
	RoleObserver  Role = "observer"
)

// ParseRole validates a role string from the wire.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePerformer, RoleObserver:
		return Role(s), nil
	default:
		return "", apperrors.Newf(apperrors.CodeInvalidArgument, "unknown role %q", s)
	}
}

// Conn is a participant's outbound message channel.
type Conn interface {
	Send(ctx context.Context, v any) error
}

// member pairs a connection with an id for logging.
type member struct {
	id   string
	conn Conn
}

type entry struct {
	performer *member
	observer  *member
	topic     *syncx.RWGuard[string]
}

func (e *entry) slot(role Role) **member {
	if role == RolePerformer {
		return &e.performer
	}
	return &e.observer
}

// Registry maps session ids to their two participant connections and caches
// the last computed topic per session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Join binds a connection to a role slot, creating the session on first join.
// Rejoining a role overwrites the previous connection. Returns the connection
// id and whether both roles are now present.
func (r *Registry) Join(sessionID string, role Role, conn Conn) (connID string, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{topic: syncx.NewGuard("")}
		r.sessions[sessionID] = e
	}

	m := &member{id: uuid.NewString(), conn: conn}
	*e.slot(role) = m
	return m.id, e.performer != nil && e.observer != nil
}

// Leave clears a role slot if it is still held by the given connection id.
// The session is destroyed once both slots are empty; reports whether that
// happened.
func (r *Registry) Leave(sessionID string, role Role, connID string) (destroyed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	slot := e.slot(role)
	if *slot == nil || (*slot).id != connID {
		// The slot was overwritten by a rejoin; nothing to clear.
		return false
	}
	*slot = nil

	if e.performer == nil && e.observer == nil {
		delete(r.sessions, sessionID)
		return true
	}
	return false
}

// Send delivers a message to one role of a session. Missing session or empty
// slot is not an error; results may outlive a departed participant.
func (r *Registry) Send(ctx context.Context, sessionID string, role Role, v any) error {
	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	var m *member
	if ok {
		m = *e.slot(role)
	}
	r.mu.RUnlock()

	if m == nil {
		return nil
	}
	return m.conn.Send(ctx, v)
}

// Broadcast delivers a message to both roles of a session.
func (r *Registry) Broadcast(ctx context.Context, sessionID string, v any) {
	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	var members []*member
	if ok {
		for _, m := range []*member{e.performer, e.observer} {
			if m != nil {
				members = append(members, m)
			}
		}
	}
	r.mu.RUnlock()

	for _, m := range members {
		_ = m.conn.Send(ctx, v)
	}
}

// SetTopic caches the session's last computed topic.
func (r *Registry) SetTopic(sessionID, topic string) {
	if g := r.topicGuard(sessionID); g != nil {
		g.Set(topic)
	}
}

// Topic returns the cached topic, if any.
func (r *Registry) Topic(sessionID string) string {
	if g := r.topicGuard(sessionID); g != nil {
		return g.Get()
	}
	return ""
}

// ClearTopic drops the cached topic, returning what was cached.
func (r *Registry) ClearTopic(sessionID string) string {
	if g := r.topicGuard(sessionID); g != nil {
		return g.Swap("")
	}
	return ""
}

func (r *Registry) topicGuard(sessionID string) *syncx.RWGuard[string] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sessionID]; ok {
		return e.topic
	}
	return nil
}
