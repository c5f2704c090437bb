package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guardnest/core/internal/config"
	"github.com/stretchr/testify/require"
)

func TestValidCookieDomain(t *testing.T) {
	cases := []struct {
		domain string
		want   bool
	}{
		{"", false},
		{"localhost", false},
		{"LOCALHOST", false},
		{"app.localhost", false},
		{"127.0.0.1", false},
		{"10.0.0.1", false},
		{"example", false},
		{"example.com", true},
		{"sub.example.com", true},
		{"Example.COM", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, validCookieDomain(tc.domain), "domain=%q", tc.domain)
	}
}

func TestNewCookiePolicy(t *testing.T) {
	t.Run("production with valid domain", func(t *testing.T) {
		cfg := &config.AppConfig{
			Env: "production",
			Auth: config.AuthRuntimeConfig{
				SessionCookie: "session_id",
				RefreshCookie: "refresh_token",
				CookieDomain:  " Example.com ",
				RefreshPath:   "/api/auth",
				SessionTTLSec: 3600,
				RefreshTTLSec: 604800,
			},
		}
		p := newCookiePolicy(cfg)
		require.Equal(t, "example.com", p.domain)
		require.True(t, p.production)
		require.Equal(t, http.SameSiteStrictMode, p.sameSite())
	})

	t.Run("invalid domain falls back to host-only", func(t *testing.T) {
		cfg := &config.AppConfig{
			Env:  "production",
			Auth: config.AuthRuntimeConfig{CookieDomain: "localhost"},
		}
		require.Empty(t, newCookiePolicy(cfg).domain)
	})

	t.Run("development relaxes samesite and secure", func(t *testing.T) {
		cfg := &config.AppConfig{Env: "development"}
		p := newCookiePolicy(cfg)
		require.False(t, p.production)
		require.Equal(t, http.SameSiteLaxMode, p.sameSite())
	})
}

func TestSetPairAndClearPair(t *testing.T) {
	policy := cookiePolicy{
		sessionName:   "session_id",
		refreshName:   "refresh_token",
		refreshPath:   "/api/auth",
		sessionMaxAge: 3600,
		refreshMaxAge: 604800,
		production:    true,
	}
	issued := &Issued{
		SessionID:        "aaaa",
		RefreshToken:     "bbbb",
		ExpiresAt:        time.Now().Add(time.Hour),
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}

	t.Run("setPair scopes refresh cookie to auth path", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		policy.setPair(c, issued)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)

		byName := map[string]*http.Cookie{}
		for _, ck := range cookies {
			byName[ck.Name] = ck
		}

		sess := byName["session_id"]
		require.NotNil(t, sess)
		require.Equal(t, "aaaa", sess.Value)
		require.Equal(t, "/", sess.Path)
		require.Equal(t, 3600, sess.MaxAge)
		require.True(t, sess.HttpOnly)
		require.True(t, sess.Secure)

		refresh := byName["refresh_token"]
		require.NotNil(t, refresh)
		require.Equal(t, "bbbb", refresh.Value)
		require.Equal(t, "/api/auth", refresh.Path)
		require.Equal(t, 604800, refresh.MaxAge)
	})

	t.Run("clearPair expires both cookies", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		policy.clearPair(c)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, ck := range cookies {
			require.Empty(t, ck.Value)
			require.Less(t, ck.MaxAge, 0)
		}
	})
}

func TestRawCookieValue(t *testing.T) {
	header := "a=1; refresh_token=abc def; b=2"
	require.Equal(t, "abc def", rawCookieValue(header, "refresh_token"))
	require.Equal(t, "1", rawCookieValue(header, "a"))
	require.Empty(t, rawCookieValue(header, "missing"))
	require.Empty(t, rawCookieValue("", "refresh_token"))
}
