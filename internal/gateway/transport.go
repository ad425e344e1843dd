package gateway

// Transport is the gateway's view of the underlying connection layer. Room
// membership is owned here: the transport's own room primitive is the single
// source of truth, and the gateway only layers activity metadata on top.
// Emits are best-effort; the gateway never re-queues a failed send.
type Transport interface {
	// JoinRoom adds the connection to the room; no-op if already a member.
	JoinRoom(connID string, key RoomKey) error

	// LeaveRoom removes the connection from the room.
	LeaveRoom(connID string, key RoomKey) error

	// RoomSize returns the current member count of the room.
	RoomSize(key RoomKey) int

	// EmitToConnection pushes one event to a single connection.
	EmitToConnection(connID string, event string, payload interface{}) error

	// EmitToRoom fans one event out to every member of the room.
	EmitToRoom(key RoomKey, event string, payload interface{}) error
}
