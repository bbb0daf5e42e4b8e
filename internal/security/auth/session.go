package auth

import (
	"context"
	"net/http"
)

// CookieName is the cookie the admin panel stores its access token in
const CookieName = "sb-access-token"

// Session is the authenticated caller of one request
type Session struct {
	UserID      string
	Email       string
	AccessToken string
}

type sessionKey struct{}

// ContextWithSession attaches s to ctx
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session of the request or nil when the
// request is anonymous.
func SessionFromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return nil
}

// TokenFromRequest reads the access token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, err := ExtractToken(h); err == nil {
			return token
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SessionFromToken verifies token and builds the session it represents
func (tm *TokenManager) SessionFromToken(token string) (*Session, error) {
	claims, err := tm.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: claims.Subject, Email: claims.Email, AccessToken: token}, nil
}
