package model

// Access is the granted access level of a user.
type Access string

const (
	AccessUser  Access = "user-access"
	AccessAdmin Access = "admin-access"
)

// Valid reports whether a is a known access level.
func (a Access) Valid() bool {
	return a == AccessUser || a == AccessAdmin
}

// Satisfies reports whether a grants at least the required level.
func (a Access) Satisfies(required Access) bool {
	if required == AccessUser {
		return a.Valid()
	}
	return a == required
}

// User is a dashboard account. PasswordHash is a bcrypt hash; TOTPSecret is
// empty when the second factor is disabled.
type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Access       Access `json:"access"`
	TOTPSecret   string `json:"-"`
}
