package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	principal *Principal
	err       error
}

func (s stubResolver) Resolve(sessionID string) (*Principal, error) {
	return s.principal, s.err
}

func principalEcho() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": p.UserID})
	}
}

func request(r *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	valid := stubResolver{principal: &Principal{
		UserID:    "u-1",
		Email:     "a@b.c",
		ExpiresAt: time.Now().Add(time.Hour),
	}}

	t.Run("no cookie", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", RequireAuth("session_id", valid), principalEcho())
		w := request(r, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unresolvable session", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", RequireAuth("session_id", stubResolver{}), principalEcho())
		w := request(r, "session_id=dead")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("resolver failure", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", RequireAuth("session_id", stubResolver{err: errors.New("db down")}), principalEcho())
		w := request(r, "session_id=live")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", RequireAuth("session_id", valid), principalEcho())
		w := request(r, "session_id=live")
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "u-1")
	})
}

func TestOptionalAuth(t *testing.T) {
	valid := stubResolver{principal: &Principal{UserID: "u-1"}}

	t.Run("passes through without cookie", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", OptionalAuth("session_id", valid), principalEcho())
		w := request(r, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "null")
	})

	t.Run("attaches principal when resolvable", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", OptionalAuth("session_id", valid), principalEcho())
		w := request(r, "session_id=live")
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "u-1")
	})
}

func TestCurrentPrincipalEmptyContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Nil(t, CurrentPrincipal(c))
	require.False(t, IsAuthenticated(c))
}
