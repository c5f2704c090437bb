package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	send := func(r *gin.Engine) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("bursts beyond the limit are rejected", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimit(newTestRedis(t)))
		r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		require.Equal(t, http.StatusOK, send(r))

		// A burst can straddle a window boundary, but doubling the limit
		// guarantees one window absorbs more than rateLimitMax requests.
		rejected := 0
		for i := 0; i < 2*rateLimitMax; i++ {
			if send(r) == http.StatusTooManyRequests {
				rejected++
			}
		}
		require.Greater(t, rejected, 0)
	})

	t.Run("authenticated requests bypass the limiter", func(t *testing.T) {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(contextKeyPrincipal, &Principal{UserID: "u-1"})
		})
		r.Use(RateLimit(newTestRedis(t)))
		r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 3*rateLimitMax; i++ {
			require.Equal(t, http.StatusOK, send(r))
		}
	})

	t.Run("redis outage fails open", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimit(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})))
		r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		require.Equal(t, http.StatusOK, send(r))
	})
}
