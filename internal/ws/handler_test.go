package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-service/internal/auth"
	"gateway-service/internal/gateway"
)

func newTestHandler(t *testing.T) (*Handler, *Hub, *gateway.Gateway) {
	t.Helper()
	hub := NewHub(nil, nil)
	gw := gateway.New(hub, nil, gateway.Options{
		DedupWindow:       10 * time.Second,
		DedupCapacity:     50,
		PayloadLimitBytes: 256,
	})
	return NewHandler(hub, gw, auth.NewVerifier("secret"), nil), hub, gw
}

func connect(t *testing.T, hub *Hub, gw *gateway.Gateway, identity gateway.Identity) *Client {
	t.Helper()
	c := attachClient(t, hub, identity)
	require.NoError(t, gw.Connect(identity, c.id))
	return c
}

// drainRaw empties the queue keeping raw JSON, for frames that are acks.
func drainRaw(t *testing.T, c *Client) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for {
		select {
		case data := <-c.send:
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func frame(t *testing.T, action string, payload interface{}) Frame {
	t.Helper()
	f := Frame{Action: action}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		f.Payload = data
	}
	return f
}

func TestHandlePing(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionPing, nil))

	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, gateway.EventPong, frames[0]["event"])
}

func TestHandleEcho(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionEcho, map[string]interface{}{"hello": "world"}))

	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, gateway.EventEchoResponse, frames[0]["event"])
	payload := frames[0]["payload"].(map[string]interface{})
	assert.Equal(t, "world", payload["hello"])
}

func TestHandleJoinChat(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionJoinChat, map[string]interface{}{"chatId": 5}))

	assert.Equal(t, 1, hub.RoomSize(gateway.ChatRoom(5)))
	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, true, frames[0]["ok"])
}

func TestHandleJoinChatRejectsZeroID(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionJoinChat, map[string]interface{}{"chatId": 0}))

	assert.Equal(t, 0, hub.RoomSize(gateway.ChatRoom(0)))
	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, false, frames[0]["ok"])
	assert.Equal(t, CodeBadRequest, frames[0]["code"])
}

func TestHandleLeaveChat(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})
	h.handleFrame(c, frame(t, ActionJoinChat, map[string]interface{}{"chatId": 5}))
	drainRaw(t, c)

	h.handleFrame(c, frame(t, ActionLeaveChat, map[string]interface{}{"chatId": 5}))

	assert.Equal(t, 0, hub.RoomSize(gateway.ChatRoom(5)))
	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, true, frames[0]["ok"])
}

func TestHandleLegacyJoinAndTyping(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionJoin, map[string]interface{}{"room": 12}))
	assert.Equal(t, 1, hub.RoomSize(gateway.LegacyRoom(12)))
	drainRaw(t, c)

	h.handleFrame(c, frame(t, ActionTyping, map[string]interface{}{"room": 12}))

	frames := drainRaw(t, c)
	// The typing broadcast reaches the member itself plus the ack.
	require.Len(t, frames, 2)
	assert.Equal(t, gateway.EventTyping, frames[0]["event"])
	assert.Equal(t, true, frames[1]["ok"])
}

func TestHandleJoinAdminRoomDenied(t *testing.T) {
	// A non-admin asking for the admin room gets a denial event plus a
	// forbidden ack, and is not added to the room.
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 2, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionJoinAdminRoom, nil))

	assert.Equal(t, 0, hub.RoomSize(gateway.AdminRoom()))
	frames := drainRaw(t, c)
	require.Len(t, frames, 2)
	assert.Equal(t, gateway.EventAccessDenied, frames[0]["event"])
	assert.Equal(t, false, frames[1]["ok"])
	assert.Equal(t, CodeForbidden, frames[1]["code"])
}

func TestHandleJoinAdminRoomAllowed(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 2, Role: gateway.RoleAdmin})

	h.handleFrame(c, frame(t, ActionJoinAdminRoom, nil))

	assert.Equal(t, 1, hub.RoomSize(gateway.AdminRoom()))
	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, true, frames[0]["ok"])
}

func TestHandleRegisterUserMismatch(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 3, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, ActionRegisterUser, map[string]interface{}{"userId": 99}))

	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, false, frames[0]["ok"])
	assert.Equal(t, CodeBadRequest, frames[0]["code"])
}

func TestHandleUnknownAction(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	c := connect(t, hub, gw, gateway.Identity{UserID: 1, Role: gateway.RoleUser})

	h.handleFrame(c, frame(t, "selfDestruct", nil))

	frames := drainRaw(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, false, frames[0]["ok"])
	assert.Equal(t, CodeUnknownAction, frames[0]["code"])
}

func TestAdminNotificationReachesAdminRoomMembers(t *testing.T) {
	h, hub, gw := newTestHandler(t)
	admin := connect(t, hub, gw, gateway.Identity{UserID: 10, Role: gateway.RoleAdmin})
	h.handleFrame(admin, frame(t, ActionJoinAdminRoom, nil))
	drainRaw(t, admin)

	delivered, err := gw.NotifyAdmins("withdrawRequested", map[string]interface{}{"withdrawId": 7, "amount": 1000})
	require.NoError(t, err)
	assert.True(t, delivered)

	frames := drainRaw(t, admin)
	require.Len(t, frames, 1)
	assert.Equal(t, "withdrawRequested", frames[0]["event"])
}
