package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"indicator-dashboard/internal/model"
)

// Session is the logged-in identity attached to a request.
type Session struct {
	Email    string       `json:"email"`
	Access   model.Access `json:"access"`
	IssuedAt time.Time    `json:"issuedAt"`
}

// Sessions is an in-memory token -> Session table with expiry.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]Session
	now    func() time.Time
}

// NewSessions creates an empty table; tokens expire ttl after issue.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		tokens: make(map[string]Session),
		now:    time.Now,
	}
}

// Issue creates a session for u and returns its token.
func (s *Sessions) Issue(u model.User) (string, Session) {
	token := uuid.NewString()
	sess := Session{Email: u.Email, Access: u.Access, IssuedAt: s.now()}

	s.mu.Lock()
	s.tokens[token] = sess
	s.mu.Unlock()
	return token, sess
}

// Lookup returns the session for token if it exists and has not expired.
// Expired entries are removed.
func (s *Sessions) Lookup(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return Session{}, false
	}
	if s.ttl > 0 && s.now().Sub(sess.IssuedAt) >= s.ttl {
		delete(s.tokens, token)
		return Session{}, false
	}
	return sess, true
}

// Revoke deletes token. Reports whether it existed.
func (s *Sessions) Revoke(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	delete(s.tokens, token)
	return ok
}

// Len returns the number of stored (possibly expired) sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type ctxKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session attached by Middleware, if any.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(Session)
	return sess, ok
}
