package gateway

import (
	"errors"
	"sync"
)

// fakeTransport records emits and keeps a local room membership map, standing
// in for the websocket hub in unit tests.
type fakeTransport struct {
	mu        sync.Mutex
	rooms     map[RoomKey]map[string]bool
	emits     []fakeEmit
	failConns map[string]bool
	sizePanic bool
}

type fakeEmit struct {
	ConnID  string
	Room    RoomKey
	Event   string
	Payload interface{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		rooms:     make(map[RoomKey]map[string]bool),
		failConns: make(map[string]bool),
	}
}

func (t *fakeTransport) JoinRoom(connID string, key RoomKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rooms[key] == nil {
		t.rooms[key] = make(map[string]bool)
	}
	t.rooms[key][connID] = true
	return nil
}

func (t *fakeTransport) LeaveRoom(connID string, key RoomKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if members, ok := t.rooms[key]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(t.rooms, key)
		}
	}
	return nil
}

func (t *fakeTransport) RoomSize(key RoomKey) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sizePanic {
		panic("room snapshot unavailable")
	}
	return len(t.rooms[key])
}

func (t *fakeTransport) EmitToConnection(connID string, event string, payload interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failConns[connID] {
		return errors.New("write failed")
	}
	t.emits = append(t.emits, fakeEmit{ConnID: connID, Event: event, Payload: payload})
	return nil
}

func (t *fakeTransport) EmitToRoom(key RoomKey, event string, payload interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emits = append(t.emits, fakeEmit{Room: key, Event: event, Payload: payload})
	return nil
}

func (t *fakeTransport) isMember(connID string, key RoomKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rooms[key][connID]
}

func (t *fakeTransport) allEmits() []fakeEmit {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]fakeEmit, len(t.emits))
	copy(out, t.emits)
	return out
}
