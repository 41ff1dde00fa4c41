package model

import "time"

// Authorization is the access level resolved for a session
type Authorization int

const (
	NotAuthorized Authorization = iota
	AuthorizedUser
	AuthorizedAdmin
)

// Role values stored on a user record
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AuthorizationForRole maps a stored role to its session authorization level
func AuthorizationForRole(role string) Authorization {
	switch role {
	case RoleAdmin:
		return AuthorizedAdmin
	case RoleUser:
		return AuthorizedUser
	default:
		return NotAuthorized
	}
}

// User is a registered player account. Users are keyed by username
// (case-sensitive) and are never deleted in normal operation.
type User struct {
	Username string
	// HashedPassword is stored as "salt:hex(sha256(salt+password))"
	HashedPassword string
	Role           string
	SubscribedAt   time.Time
	LastGameAt     time.Time
	GamesPlayed    int
	CurrentStreak  int
	LongestStreak  int
}
