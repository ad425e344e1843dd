package gateway

import (
	"log/slog"
	"time"

	"gateway-service/internal/metrics"
)

// Options carries the facade's tunables. Zero values fall back to defaults.
type Options struct {
	// DedupWindow is how long a recorded admin event suppresses repeats.
	DedupWindow time.Duration
	// DedupCapacity bounds the dedup cache; oldest records evicted first.
	DedupCapacity int
	// DedupBucket is the coarse timestamp granularity mixed into dedup keys.
	DedupBucket time.Duration
	// PayloadLimitBytes truncates outbound string fields beyond this size.
	PayloadLimitBytes int
}

func (o *Options) withDefaults() {
	if o.DedupWindow <= 0 {
		o.DedupWindow = 10 * time.Second
	}
	if o.DedupCapacity <= 0 {
		o.DedupCapacity = 50
	}
	if o.DedupBucket <= 0 {
		o.DedupBucket = 10 * time.Second
	}
	if o.PayloadLimitBytes <= 0 {
		o.PayloadLimitBytes = 4096
	}
}

// Gateway is the operation surface external services call to reach live
// clients. It orchestrates the registry, room metadata, dedup cache and
// payload guard, and pushes frames through the transport.
type Gateway struct {
	registry  *Registry
	rooms     *Rooms
	dedup     *DedupCache
	guard     *PayloadGuard
	transport Transport
	logger    *slog.Logger
	bucket    time.Duration

	now func() time.Time
}

func New(transport Transport, logger *slog.Logger, opts Options) *Gateway {
	opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		registry:  NewRegistry(),
		rooms:     NewRooms(transport),
		dedup:     NewDedupCache(opts.DedupWindow, opts.DedupCapacity),
		guard:     NewPayloadGuard(opts.PayloadLimitBytes),
		transport: transport,
		logger:    logger,
		bucket:    opts.DedupBucket,
		now:       time.Now,
	}
}

// Registry exposes the connection registry for observability callers.
func (g *Gateway) Registry() *Registry { return g.registry }

// Rooms exposes the room activity tracker, used by the janitor.
func (g *Gateway) Rooms() *Rooms { return g.rooms }

// Dedup exposes the dedup cache, used by the janitor.
func (g *Gateway) Dedup() *DedupCache { return g.dedup }

// Connect records a freshly authenticated connection. The connection is
// Active from here until Disconnect.
func (g *Gateway) Connect(identity Identity, connID string) error {
	if identity.UserID == 0 || connID == "" {
		return ErrBadRequest
	}
	g.registry.Register(identity, connID)
	metrics.OnlineConns.Inc()
	g.logger.Info("connection registered", "connID", connID, "userID", identity.UserID, "role", identity.Role)
	return nil
}

// Disconnect removes the connection from the registry. Unknown connection
// IDs are tolerated: a transport close racing a failed handshake is normal.
func (g *Gateway) Disconnect(connID string) {
	if g.registry.Unregister(connID) {
		metrics.OnlineConns.Dec()
		g.logger.Info("connection unregistered", "connID", connID)
	}
}

// JoinRoom adds the connection to the room and touches room activity.
func (g *Gateway) JoinRoom(connID string, key RoomKey) error {
	if connID == "" || key == "" {
		return ErrBadRequest
	}
	if _, ok := g.registry.IdentityOf(connID); !ok {
		return ErrBadRequest
	}
	if err := g.transport.JoinRoom(connID, key); err != nil {
		return err
	}
	g.rooms.Touch(key)
	return nil
}

// LeaveRoom removes the connection from the room. Room metadata is left for
// the janitor to reclaim.
func (g *Gateway) LeaveRoom(connID string, key RoomKey) error {
	if connID == "" || key == "" {
		return ErrBadRequest
	}
	if err := g.transport.LeaveRoom(connID, key); err != nil {
		return err
	}
	g.rooms.Touch(key)
	return nil
}

// Typing broadcasts a typing indicator from the connection's user to the
// room and refreshes room activity.
func (g *Gateway) Typing(connID string, key RoomKey, event string) error {
	if connID == "" || key == "" || event == "" {
		return ErrBadRequest
	}
	identity, ok := g.registry.IdentityOf(connID)
	if !ok {
		return ErrBadRequest
	}
	g.rooms.Touch(key)
	payload := map[string]interface{}{"userId": identity.UserID, "room": string(key)}
	return g.transport.EmitToRoom(key, event, payload)
}

// SendToUser fans payload out to every live connection of userID and returns
// the count delivered. Zero delivered with a nil error means the user is
// offline; callers fall back to their persisted-notification path. All
// resolved connections are attempted before returning, with no ordering
// guarantee between them.
func (g *Gateway) SendToUser(userID uint, event string, payload interface{}) (int, error) {
	if userID == 0 || event == "" {
		return 0, ErrBadRequest
	}
	conns := g.registry.ConnectionsFor(userID)
	if len(conns) == 0 {
		metrics.SendOffline.Inc()
		return 0, nil
	}

	limited := g.guard.Limit(payload)
	delivered := 0
	for _, connID := range conns {
		if err := g.transport.EmitToConnection(connID, event, limited); err != nil {
			g.logger.Warn("emit failed", "connID", connID, "userID", userID, "event", event, "error", err)
			continue
		}
		delivered++
	}
	metrics.SendDelivered.Add(float64(delivered))
	return delivered, nil
}

// BroadcastToRoom pushes one event to every member of the room via the
// transport's native broadcast and refreshes room activity.
func (g *Gateway) BroadcastToRoom(key RoomKey, event string, payload interface{}) error {
	if key == "" || event == "" {
		return ErrBadRequest
	}
	limited := g.guard.Limit(payload)
	g.rooms.Touch(key)
	metrics.RoomBroadcasts.Inc()
	return g.transport.EmitToRoom(key, event, limited)
}

// NotifyAdmins broadcasts an event to the admin room unless the same logical
// event was delivered within the dedup window. The boolean reports whether
// the event was delivered; false with a nil error means it was suppressed as
// a duplicate, a normal outcome.
func (g *Gateway) NotifyAdmins(event string, payload map[string]interface{}) (bool, error) {
	if event == "" {
		return false, ErrBadRequest
	}
	now := g.now()
	key := DedupKey(event, Correlator(payload), now, g.bucket)
	if !g.dedup.TryRecord(key, now, payload) {
		metrics.DuplicatesSuppressed.Inc()
		g.logger.Debug("duplicate admin notification suppressed", "event", event, "key", key)
		return false, nil
	}

	limited := g.guard.Limit(payload)
	g.rooms.Touch(AdminRoom())
	metrics.RoomBroadcasts.Inc()
	if err := g.transport.EmitToRoom(AdminRoom(), event, limited); err != nil {
		return false, err
	}
	return true, nil
}

// JoinAdminRoom adds the connection to the admin room when its identity
// carries the admin role. Denied attempts get an explicit denial event back
// on the same connection so the client can react; the connection stays open.
func (g *Gateway) JoinAdminRoom(connID string) error {
	if connID == "" {
		return ErrBadRequest
	}
	identity, ok := g.registry.IdentityOf(connID)
	if !ok {
		return ErrBadRequest
	}
	if !identity.IsAdmin() {
		metrics.AdminJoinDenied.Inc()
		denial := map[string]interface{}{"reason": "admin role required"}
		if err := g.transport.EmitToConnection(connID, EventAccessDenied, denial); err != nil {
			g.logger.Warn("denial emit failed", "connID", connID, "error", err)
		}
		return ErrForbidden
	}
	if err := g.transport.JoinRoom(connID, AdminRoom()); err != nil {
		return err
	}
	g.rooms.Touch(AdminRoom())
	return nil
}
