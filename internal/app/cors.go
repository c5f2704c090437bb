package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/guardnest/core/internal/config"
)

// buildCORSConfig assembles the CORS policy. Credentialed requests are the
// norm here since cookies carry the session, so production requires an
// explicit origin allowlist; development allows everything.
func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	out := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if cfg.IsDev() || len(cfg.AllowedOrigins) == 0 {
		out.AllowOriginFunc = func(string) bool { return true }
		return out
	}
	out.AllowOriginFunc = originAllowlist(cfg.AllowedOrigins)
	return out
}

// originAllowlist matches the host portion of an Origin header against the
// configured patterns: exact host, "*.domain" suffix, or "host:*" any-port.
func originAllowlist(patterns []string) func(string) bool {
	return func(origin string) bool {
		host := strings.ToLower(originHost(origin))
		for _, pattern := range patterns {
			if originMatches(strings.ToLower(pattern), host) {
				return true
			}
		}
		return false
	}
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

func originMatches(pattern, host string) bool {
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	default:
		return false
	}
}
