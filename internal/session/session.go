// Package session maps opaque cookie tokens to user ids.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName is the name of the login cookie.
const CookieName = "movierama_session"

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("session: no session")

// Store persists session tokens. Load reports ok=false for unknown or
// expired tokens.
type Store interface {
	Save(ctx context.Context, token string, userID int64, ttl time.Duration) error
	Load(ctx context.Context, token string) (userID int64, ok bool, err error)
	Delete(ctx context.Context, token string) error
}

// Manager issues and resolves session cookies.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

// NewManager constructs a Manager. secure marks cookies for HTTPS only.
func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure}
}

// Start creates a session for userID and sets its cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID int64) error {
	token := uuid.NewString()
	if err := m.store.Save(ctx, token, userID, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// UserID resolves the request's session cookie. It returns ErrNoSession
// when the cookie is missing, malformed, unknown or expired.
func (m *Manager) UserID(r *http.Request) (int64, error) {
	token, ok := tokenFrom(r)
	if !ok {
		return 0, ErrNoSession
	}
	userID, found, err := m.store.Load(r.Context(), token)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoSession
	}
	return userID, nil
}

// End forgets the request's session and expires its cookie.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) error {
	if token, ok := tokenFrom(r); ok {
		if err := m.store.Delete(r.Context(), token); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func tokenFrom(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}
