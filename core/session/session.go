// Package session is the single source of truth for who is logged in.
// The store owns the Identity; every other component reads it through
// Current and must never mutate it.
package session

// Identity is the authenticated user, as returned by the remote auth
// endpoint. It is replaced wholesale on login and merged on profile
// updates, never edited field by field from outside.
type Identity struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone"`
	Image     string `json:"image"`
	Token     string `json:"token"`
}

// Keeper persists the single "current identity" record across process
// restarts. Absence of a record means logged out.
type Keeper interface {
	Save(Identity) error
	Load() (Identity, bool, error)
	Clear() error
}
