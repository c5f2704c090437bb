package session

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guardnest/core/internal/config"
)

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

// validCookieDomain reports whether domain is usable as an explicit cookie
// Domain attribute. Localhost variants, bare IPv4 addresses and dot-less
// values are rejected; callers fall back to host-only cookies.
func validCookieDomain(domain string) bool {
	if domain == "" {
		return false
	}
	lower := strings.ToLower(domain)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return false
	}
	if ipv4Pattern.MatchString(lower) {
		return false
	}
	return strings.Contains(lower, ".")
}

// cookiePolicy computes every cookie attribute once from deployment config.
// The refresh cookie is scoped to the auth subpath so the longer-lived token
// only travels to the endpoints that need it.
type cookiePolicy struct {
	sessionName   string
	refreshName   string
	domain        string
	refreshPath   string
	sessionMaxAge int
	refreshMaxAge int
	production    bool
}

func newCookiePolicy(cfg *config.AppConfig) cookiePolicy {
	p := cookiePolicy{
		sessionName:   cfg.Auth.SessionCookie,
		refreshName:   cfg.Auth.RefreshCookie,
		refreshPath:   cfg.Auth.RefreshPath,
		sessionMaxAge: cfg.Auth.SessionTTLSec,
		refreshMaxAge: cfg.Auth.RefreshTTLSec,
		production:    !cfg.IsDev(),
	}
	if d := strings.TrimSpace(cfg.Auth.CookieDomain); validCookieDomain(d) {
		p.domain = strings.ToLower(d)
	}
	return p
}

func (p cookiePolicy) sameSite() http.SameSite {
	if p.production {
		// Strict in production; lax in development to tolerate cross-port
		// redirects on localhost.
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

func (p cookiePolicy) set(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(p.sameSite())
	c.SetCookie(name, value, maxAge, path, p.domain, p.production, true)
}

// setPair sets the access and refresh cookies for a freshly issued or
// rotated session.
func (p cookiePolicy) setPair(c *gin.Context, issued *Issued) {
	p.set(c, p.sessionName, issued.SessionID, "/", p.sessionMaxAge)
	p.set(c, p.refreshName, issued.RefreshToken, p.refreshPath, p.refreshMaxAge)
}

// clearPair expires both cookies so clients never retain unusable session
// state after an error, a logout, or a rejected refresh.
func (p cookiePolicy) clearPair(c *gin.Context) {
	p.set(c, p.sessionName, "", "/", -1)
	p.set(c, p.refreshName, "", p.refreshPath, -1)
}

// rawCookieValue scans the raw Cookie header for name. The structured cookie
// API drops values it considers malformed; this naive scan is the fallback
// that detects a token the structured read could not deliver.
func rawCookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}
