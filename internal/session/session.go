// Package session implements email-only sign-in: a random session id kept
// server side in the sessions store and handed to the browser as a signed cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"deal-qualifier/internal/kv"
)

const CookieName = "dq_session"

var ErrNoSession = errors.New("no session")

// Session is the server-side record for a signed-in user.
type Session struct {
	ID        string    `json:"-"`
	SubjectID string    `json:"subjectId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	store  kv.Store
	secret []byte
	ttl    time.Duration
	secure bool
	log    *slog.Logger
	now    func() time.Time
}

func NewManager(store kv.Store, secret []byte, ttl time.Duration, secure bool, log *slog.Logger) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, secure: secure, log: log, now: time.Now}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SubjectID derives the stable user id for an email address.
func SubjectID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+NormalizeEmail(email))).String()
}

// Login creates a session for email and sets the session cookie on w.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, email string) (Session, error) {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		SubjectID: SubjectID(email),
		Email:     NormalizeEmail(email),
		ExpiresAt: now.Add(m.ttl),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.Put(ctx, s.ID, raw, m.ttl); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	token, err := m.sign(s.ID, now, s.ExpiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, m.cookie(token, s.ExpiresAt))
	return s, nil
}

// Logout revokes the request's session, if any, and clears the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, m.cookie("", time.Unix(0, 0)))
	id, err := m.sessionID(r)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// FromRequest resolves the session cookie. A missing, forged, expired or
// revoked session yields ErrNoSession.
func (m *Manager) FromRequest(r *http.Request) (Session, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return Session{}, ErrNoSession
	}
	raw, err := m.store.Get(r.Context(), id)
	if errors.Is(err, kv.ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, ErrNoSession
	}
	if !s.ExpiresAt.IsZero() && !m.now().Before(s.ExpiresAt) {
		return Session{}, ErrNoSession
	}
	s.ID = id
	return s, nil
}

func (m *Manager) sign(id string, issued, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}
