package gateway

import "errors"

// Roles carried by a verified connection identity.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated principal behind a connection, produced by
// the token verifier at handshake time.
type Identity struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the identity may join the admin room.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

var (
	// ErrBadRequest is returned for malformed identifiers (zero user ID,
	// empty event name or room key, unknown connection). No state is
	// mutated when it is returned.
	ErrBadRequest = errors.New("bad request")

	// ErrForbidden is returned when a non-admin connection attempts an
	// admin-only operation. The connection stays open.
	ErrForbidden = errors.New("forbidden")
)
