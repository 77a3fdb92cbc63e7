package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	sent []any
}

func (c *recordingConn) Send(_ context.Context, v any) error {
	c.sent = append(c.sent, v)
	return nil
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"performer", "observer"} {
		role, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), role)
	}
	_, err := ParseRole("director")
	assert.Error(t, err)
}

func TestJoinReadyWhenBothPresent(t *testing.T) {
	r := NewRegistry()

	_, ready := r.Join("s1", RolePerformer, &recordingConn{})
	assert.False(t, ready)

	_, ready = r.Join("s1", RoleObserver, &recordingConn{})
	assert.True(t, ready)
}

func TestRejoinOverwritesSlot(t *testing.T) {
	r := NewRegistry()
	old := &recordingConn{}
	replacement := &recordingConn{}

	oldID, _ := r.Join("s1", RolePerformer, old)
	r.Join("s1", RoleObserver, &recordingConn{})
	r.Join("s1", RolePerformer, replacement)

	require.NoError(t, r.Send(context.Background(), "s1", RolePerformer, "hello"))
	assert.Empty(t, old.sent)
	assert.Equal(t, []any{"hello"}, replacement.sent)

	// The stale connection's departure must not evict the replacement.
	destroyed := r.Leave("s1", RolePerformer, oldID)
	assert.False(t, destroyed)
	require.NoError(t, r.Send(context.Background(), "s1", RolePerformer, "again"))
	assert.Len(t, replacement.sent, 2)
}

func TestDestroyedWhenBothLeave(t *testing.T) {
	r := NewRegistry()
	pid, _ := r.Join("s1", RolePerformer, &recordingConn{})
	oid, _ := r.Join("s1", RoleObserver, &recordingConn{})
	r.SetTopic("s1", "card tricks")

	assert.False(t, r.Leave("s1", RolePerformer, pid))
	assert.True(t, r.Leave("s1", RoleObserver, oid))

	// Session is gone along with its cached topic.
	assert.Equal(t, "", r.Topic("s1"))
}

func TestBroadcastReachesBothRoles(t *testing.T) {
	r := NewRegistry()
	performer := &recordingConn{}
	observer := &recordingConn{}
	r.Join("s1", RolePerformer, performer)
	r.Join("s1", RoleObserver, observer)

	r.Broadcast(context.Background(), "s1", "ready")

	assert.Equal(t, []any{"ready"}, performer.sent)
	assert.Equal(t, []any{"ready"}, observer.sent)
}

func TestSendToEmptySlotIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Join("s1", RolePerformer, &recordingConn{})

	assert.NoError(t, r.Send(context.Background(), "s1", RoleObserver, "x"))
	assert.NoError(t, r.Send(context.Background(), "missing", RolePerformer, "x"))
}

func TestTopicCache(t *testing.T) {
	r := NewRegistry()
	r.Join("s1", RolePerformer, &recordingConn{})

	assert.Equal(t, "", r.Topic("s1"))
	r.SetTopic("s1", "gardens")
	assert.Equal(t, "gardens", r.Topic("s1"))
	assert.Equal(t, "gardens", r.ClearTopic("s1"))
	assert.Equal(t, "", r.Topic("s1"))
}
