package sync

import (
	"encoding/json"
	"fmt"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiospace/audiospace-backend/internal/core"
)

type fakeConn struct {
	mu   gosync.Mutex
	sent []map[string]any
}

func (f *fakeConn) TrySend(payload []byte) error {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, m)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() {}

// last returns the most recent message, failing the test when none arrived.
func (f *fakeConn) last(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestController() *Controller {
	return NewController(core.NewRegistry(nil), 1024, time.Minute)
}

func connect(ctl *Controller, id string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(id, conn), conn
}

func send(ctl *Controller, sess *Session, v any) {
	data, _ := json.Marshal(v)
	ctl.handle(sess, data)
}

func TestCreateRepliesAndBroadcasts(t *testing.T) {
	ctl := newTestController()
	alice, aliceConn := connect(ctl, "a")

	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice"})

	require.Equal(t, 2, aliceConn.count())
	created := aliceConn.sent[0]
	assert.Equal(t, "created", created["type"])
	assert.NotEmpty(t, created["roomId"])
	assert.Equal(t, []any{"Alice"}, created["members"])

	update := aliceConn.sent[1]
	assert.Equal(t, "membershipUpdate", update["type"])
	assert.Equal(t, []any{"Alice"}, update["members"])
}

func TestCreateRequiresDisplayName(t *testing.T) {
	ctl := newTestController()
	sess, conn := connect(ctl, "a")

	send(ctl, sess, map[string]any{"type": "create", "displayName": ""})

	msg := conn.last(t)
	assert.Equal(t, "errorMsg", msg["type"])
	_, _, bound := sess.binding()
	assert.False(t, bound)
}

func TestJoinUnknownRoom(t *testing.T) {
	ctl := newTestController()
	sess, conn := connect(ctl, "b")

	send(ctl, sess, map[string]any{"type": "join", "roomId": "nope", "displayName": "Bob"})

	msg := conn.last(t)
	assert.Equal(t, "errorMsg", msg["type"])
	assert.Equal(t, "Room does not exist", msg["message"])
	_, _, bound := sess.binding()
	assert.False(t, bound)
}

func TestJoinNameTakenLeavesSessionUnbound(t *testing.T) {
	ctl := newTestController()
	alice, aliceConn := connect(ctl, "a")
	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice"})
	roomID := aliceConn.sent[0]["roomId"].(string)

	dup, dupConn := connect(ctl, "b")
	send(ctl, dup, map[string]any{"type": "join", "roomId": roomID, "displayName": "Alice"})

	msg := dupConn.last(t)
	assert.Equal(t, "errorMsg", msg["type"])
	assert.Equal(t, "Username already taken in this room", msg["message"])

	// A failed join may retry with a different name.
	send(ctl, dup, map[string]any{"type": "join", "roomId": roomID, "displayName": "Bob"})
	update := dupConn.last(t)
	assert.Equal(t, "membershipUpdate", update["type"])
	assert.Equal(t, []any{"Alice", "Bob"}, update["members"])
}

func TestPlayRequiresBoundSession(t *testing.T) {
	ctl := newTestController()
	sess, conn := connect(ctl, "a")

	send(ctl, sess, map[string]any{"type": "play", "roomId": "r", "track": "dQw4w9WgXcQ", "position": 0.0})
	assert.Zero(t, conn.count())
}

func TestScenarioTwoParticipants(t *testing.T) {
	ctl := newTestController()

	// Create room as Alice.
	alice, aliceConn := connect(ctl, "a")
	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice"})
	roomID := aliceConn.sent[0]["roomId"].(string)

	// Bob joins: both receive membershipUpdate.
	bob, bobConn := connect(ctl, "b")
	send(ctl, bob, map[string]any{"type": "join", "roomId": roomID, "displayName": "Bob"})

	assert.Equal(t, []any{"Alice", "Bob"}, aliceConn.last(t)["members"])
	assert.Equal(t, []any{"Alice", "Bob"}, bobConn.last(t)["members"])

	// Alice plays: both receive the play event, including the originator.
	send(ctl, alice, map[string]any{"type": "play", "roomId": roomID, "track": "dQw4w9WgXcQ", "position": 0.0})
	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		msg := conn.last(t)
		assert.Equal(t, "play", msg["type"])
		assert.Equal(t, "dQw4w9WgXcQ", msg["track"])
		assert.Equal(t, 0.0, msg["position"])
	}

	// Bob pauses at 12.5: both receive the pause event.
	send(ctl, bob, map[string]any{"type": "pause", "roomId": roomID, "position": 12.5})
	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		msg := conn.last(t)
		assert.Equal(t, "pause", msg["type"])
		assert.Equal(t, 12.5, msg["position"])
	}

	// A late sync request from Alice reflects the paused state.
	send(ctl, alice, map[string]any{"type": "syncRequest", "roomId": roomID})
	state := aliceConn.last(t)
	assert.Equal(t, "syncState", state["type"])
	assert.Equal(t, "dQw4w9WgXcQ", state["track"])
	assert.Equal(t, 12.5, state["position"])
	assert.Equal(t, false, state["playing"])
	// Replies go to the requester only.
	assert.NotEqual(t, "syncState", bobConn.last(t)["type"])

	// Bob disconnects: Alice sees the shrunken member list, room survives.
	ctl.disconnect(bob)
	update := aliceConn.last(t)
	assert.Equal(t, "membershipUpdate", update["type"])
	assert.Equal(t, []any{"Alice"}, update["members"])

	// Alice disconnects: the room is gone and a later join fails.
	ctl.disconnect(alice)
	late, lateConn := connect(ctl, "c")
	send(ctl, late, map[string]any{"type": "join", "roomId": roomID, "displayName": "Carol"})
	msg := lateConn.last(t)
	assert.Equal(t, "errorMsg", msg["type"])
	assert.Equal(t, "Room does not exist", msg["message"])
}

func TestRebindRejected(t *testing.T) {
	ctl := newTestController()
	alice, aliceConn := connect(ctl, "a")
	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice"})

	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice2"})
	assert.Equal(t, "errorMsg", aliceConn.last(t)["type"])

	send(ctl, alice, map[string]any{"type": "join", "roomId": "other", "displayName": "Alice"})
	assert.Equal(t, "errorMsg", aliceConn.last(t)["type"])
}

func TestPlayForeignRoomIgnored(t *testing.T) {
	ctl := newTestController()
	alice, aliceConn := connect(ctl, "a")
	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice"})

	other, otherConn := connect(ctl, "b")
	send(ctl, other, map[string]any{"type": "create", "displayName": "Bob"})
	otherRoom := otherConn.sent[0]["roomId"].(string)

	before := aliceConn.count()
	otherBefore := otherConn.count()
	send(ctl, alice, map[string]any{"type": "play", "roomId": otherRoom, "track": "dQw4w9WgXcQ", "position": 1.0})
	assert.Equal(t, before, aliceConn.count())
	assert.Equal(t, otherBefore, otherConn.count())
}

func TestDisconnectIdempotent(t *testing.T) {
	ctl := newTestController()
	alice, _ := connect(ctl, "a")
	send(ctl, alice, map[string]any{"type": "create", "displayName": "Alice"})

	ctl.disconnect(alice)
	// A second disconnect for the same session is a no-op.
	ctl.disconnect(alice)
}

func TestUnknownMessageIgnored(t *testing.T) {
	ctl := newTestController()
	sess, conn := connect(ctl, "a")

	ctl.handle(sess, []byte(`{"type":"dance"}`))
	ctl.handle(sess, []byte(`not json`))
	assert.Zero(t, conn.count())
}

func TestManyJoinersAllListed(t *testing.T) {
	ctl := newTestController()
	host, hostConn := connect(ctl, "host")
	send(ctl, host, map[string]any{"type": "create", "displayName": "host"})
	roomID := hostConn.sent[0]["roomId"].(string)

	for i := 0; i < 10; i++ {
		sess, _ := connect(ctl, fmt.Sprintf("s%d", i))
		send(ctl, sess, map[string]any{"type": "join", "roomId": roomID, "displayName": fmt.Sprintf("user-%d", i)})
	}

	members := hostConn.last(t)["members"].([]any)
	assert.Len(t, members, 11)
	assert.Equal(t, "host", members[0])
	assert.Equal(t, "user-9", members[10])
}
