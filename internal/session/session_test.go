package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-qualifier/internal/kv"
	"deal-qualifier/internal/logger"
)

var secret = []byte("test-secret")

func newTestManager(t *testing.T) (*Manager, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	return NewManager(store, secret, time.Hour, true, logger.Discard()), store
}

// login signs in and returns a request carrying the issued cookie.
func login(t *testing.T, m *Manager, email string) (Session, *http.Request) {
	t.Helper()
	rec := httptest.NewRecorder()
	s, err := m.Login(context.Background(), rec, email)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/deals", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return s, req
}

func TestSubjectIDIsStablePerEmail(t *testing.T) {
	a := SubjectID("Jane@Example.com ")
	b := SubjectID("jane@example.com")
	c := SubjectID("john@example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestLoginSetsCookie(t *testing.T) {
	m, store := newTestManager(t)
	rec := httptest.NewRecorder()

	s, err := m.Login(context.Background(), rec, " Jane@Example.com")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", s.Email)
	assert.Equal(t, SubjectID("jane@example.com"), s.SubjectID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.NotContains(t, c.Value, s.Email)

	_, err = store.Get(context.Background(), s.ID)
	assert.NoError(t, err)
}

func TestFromRequestRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	s, req := login(t, m, "jane@example.com")

	got, err := m.FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.SubjectID, got.SubjectID)
	assert.Equal(t, s.Email, got.Email)
}

func TestFromRequestRejects(t *testing.T) {
	m, _ := newTestManager(t)
	_, valid := login(t, m, "jane@example.com")
	validCookie, err := valid.Cookie(CookieName)
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "whatever",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ID:        "whatever",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	unknownID, err := m.sign("not-stored", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage", &http.Cookie{Name: CookieName, Value: "not-a-jwt"}},
		{"wrong key", &http.Cookie{Name: CookieName, Value: forged}},
		{"alg none", &http.Cookie{Name: CookieName, Value: unsigned}},
		{"unknown session", &http.Cookie{Name: CookieName, Value: unknownID}},
		{"tampered", &http.Cookie{Name: CookieName, Value: validCookie.Value + "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			_, err := m.FromRequest(req)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestFromRequestExpired(t *testing.T) {
	m, _ := newTestManager(t)
	_, req := login(t, m, "jane@example.com")

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := m.FromRequest(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutRevokes(t *testing.T) {
	m, store := newTestManager(t)
	s, req := login(t, m, "jane@example.com")

	rec := httptest.NewRecorder()
	require.NoError(t, m.Logout(context.Background(), rec, req))

	_, err := store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	_, err = m.FromRequest(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogoutWithoutSession(t *testing.T) {
	m, _ := newTestManager(t)
	rec := httptest.NewRecorder()
	assert.NoError(t, m.Logout(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/logout", nil)))
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestRequireSession(t *testing.T) {
	m, _ := newTestManager(t)
	protected := m.Load(RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(s.Email))
	})))

	t.Run("anonymous redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deals", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("signed in passes", func(t *testing.T) {
		_, req := login(t, m, "jane@example.com")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "jane@example.com", rec.Body.String())
	})
}
