package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
)

const TokenHeader = "x-auth-token"

// Session is the caller's credential. It is passed explicitly to anything
// that talks to the campaign service.
type Session struct {
	Token  string
	UserID string
}

// Require returns s, or ErrMissingSession when no session was supplied.
func Require(s *Session) (*Session, error) {
	if s == nil {
		return nil, appErrors.ErrMissingSession
	}
	return s, nil
}

// FromRequest builds a session from the x-auth-token header, falling back to
// an Authorization bearer token. A request without either yields an anonymous
// session, never nil.
func FromRequest(r *http.Request) *Session {
	token := r.Header.Get(TokenHeader)
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	return &Session{Token: token}
}

// CacheScope names the slice of the query cache this session may read. The
// token is hashed so it never lands in a cache key.
func (s *Session) CacheScope() string {
	if s == nil || s.Token == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(s.Token))
	return hex.EncodeToString(sum[:16])
}

// Apply attaches the session token to an outgoing request.
func (s *Session) Apply(req *http.Request) {
	if s != nil && s.Token != "" {
		req.Header.Set(TokenHeader, s.Token)
	}
}
