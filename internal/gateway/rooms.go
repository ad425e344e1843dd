package gateway

import (
	"strconv"
	"sync"
	"time"
)

// RoomKey names a broadcast scope. Constructors keep prefixed chat rooms,
// the admin room and raw numeric legacy rooms from colliding.
type RoomKey string

const adminRoomKey RoomKey = "admin-room"

// ChatRoom returns the key of the room backing one chat conversation.
func ChatRoom(conversationID uint) RoomKey {
	return RoomKey("chat:" + strconv.FormatUint(uint64(conversationID), 10))
}

// AdminRoom returns the key of the moderation broadcast room.
func AdminRoom() RoomKey {
	return adminRoomKey
}

// LegacyRoom returns the key of a bare numeric room as used by older clients.
func LegacyRoom(id uint) RoomKey {
	return RoomKey(strconv.FormatUint(uint64(id), 10))
}

// MemberCounter exposes the transport's own view of room membership. The
// gateway never duplicates membership state; it only reads the count to guard
// eviction and for logging.
type MemberCounter interface {
	RoomSize(key RoomKey) int
}

// Rooms tracks last-activity timestamps for rooms whose membership lives in
// the transport. Activity is touched by join, leave, typing and broadcast;
// idle metadata is reclaimed by the janitor.
type Rooms struct {
	mu           sync.Mutex
	lastActivity map[RoomKey]time.Time
	members      MemberCounter
}

func NewRooms(members MemberCounter) *Rooms {
	return &Rooms{
		lastActivity: make(map[RoomKey]time.Time),
		members:      members,
	}
}

// Touch records now as the room's last activity, creating the record if absent.
func (r *Rooms) Touch(key RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity[key] = time.Now()
}

// MembersOf returns the transport's current member count for the room. It is
// observability only; delivery always goes through the transport's native
// room broadcast.
func (r *Rooms) MembersOf(key RoomKey) int {
	return r.members.RoomSize(key)
}

// LastActivity returns the recorded activity time for the room, if tracked.
func (r *Rooms) LastActivity(key RoomKey) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.lastActivity[key]
	return t, ok
}

// Tracked returns the number of rooms with activity metadata.
func (r *Rooms) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lastActivity)
}

// EvictIdle removes metadata for rooms that have been inactive longer than
// idleThreshold and that the transport reports as empty. Rooms inside the
// grace window are left alone even when empty, so churny rooms don't thrash.
// A room with live members is never evicted regardless of age. Returns the
// number of rooms evicted.
func (r *Rooms) EvictIdle(idleThreshold time.Duration, now time.Time) int {
	r.mu.Lock()
	stale := make([]RoomKey, 0)
	for key, last := range r.lastActivity {
		if now.Sub(last) > idleThreshold {
			stale = append(stale, key)
		}
	}
	r.mu.Unlock()

	// Member counts are read outside the lock; the transport has its own
	// synchronization and a join racing eviction simply re-touches the room.
	evicted := 0
	for _, key := range stale {
		if r.members.RoomSize(key) > 0 {
			continue
		}
		r.mu.Lock()
		if last, ok := r.lastActivity[key]; ok && now.Sub(last) > idleThreshold {
			delete(r.lastActivity, key)
			evicted++
		}
		r.mu.Unlock()
	}
	return evicted
}
