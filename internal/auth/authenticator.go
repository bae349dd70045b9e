package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"indicator-dashboard/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOTPRequired        = errors.New("otp code required")
)

// Authenticator verifies credentials against a UserStore and issues sessions.
type Authenticator struct {
	users    model.UserStore
	sessions *Sessions
	now      func() time.Time
}

func NewAuthenticator(users model.UserStore, sessions *Sessions) *Authenticator {
	return &Authenticator{users: users, sessions: sessions, now: time.Now}
}

// Sessions returns the token table.
func (a *Authenticator) Sessions() *Sessions { return a.sessions }

// Login checks email/password and, for users with a TOTP secret, the otp
// code. Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, email, password, code string) (string, Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := a.users.GetUser(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Session{}, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", Session{}, ErrInvalidCredentials
	}
	if u.TOTPSecret != "" {
		if code == "" {
			return "", Session{}, ErrOTPRequired
		}
		if !ValidateTOTP(u.TOTPSecret, code, a.now()) {
			return "", Session{}, ErrInvalidCredentials
		}
	}
	if !u.Access.Valid() {
		u.Access = model.AccessUser
	}

	token, sess := a.sessions.Issue(u)
	log.Printf("[auth] login %s (%s)", u.Email, u.Access)
	return token, sess, nil
}

// Logout revokes token.
func (a *Authenticator) Logout(token string) bool {
	return a.sessions.Revoke(token)
}

// BearerToken extracts the token from "Authorization: Bearer <token>" or the
// X-Session-Token header.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Session-Token"))
}

// Middleware attaches the caller's session to the request context when the
// request carries a valid token. It never rejects.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := BearerToken(r); tok != "" {
			if sess, ok := a.sessions.Lookup(tok); ok {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccess rejects requests whose session does not satisfy required.
// When enforce is false every request passes.
func RequireAccess(required model.Access, enforce bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := FromContext(r.Context())
			switch {
			case !ok:
				writeDenied(w, http.StatusUnauthorized, "authentication required")
			case !sess.Access.Satisfies(required):
				writeDenied(w, http.StatusForbidden, "insufficient access")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeDenied(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"success":false,"message":%q}`, msg)
}
