package session

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guardnest/core/internal/config"
	"github.com/guardnest/core/internal/middleware"
	"github.com/guardnest/core/internal/modules/auth/identity"
	"github.com/guardnest/core/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc        *Service
	idp        *identity.Client
	policy     cookiePolicy
	cronSecret string
	logger     *zap.Logger
}

func NewHandler(svc *Service, idp *identity.Client, cfg *config.AppConfig, logger *zap.Logger) *Handler {
	return &Handler{
		svc:        svc,
		idp:        idp,
		policy:     newCookiePolicy(cfg),
		cronSecret: cfg.Auth.CronSecret,
		logger:     logger.Named("auth"),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/signup", h.signup)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", h.logout)
	a.POST("/cleanup", h.cleanup)
	a.POST("/check-email", h.checkEmail)
	// The app wiring attaches OptionalAuth globally; h.session only reads the
	// principal it leaves behind.
	a.GET("/session", h.session)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "missing credentials")
		return
	}
	if dto.Email == "" || dto.Password == "" {
		response.BadRequest(c, "missing credentials")
		return
	}
	if len(dto.Email) > maxEmailLength {
		response.BadRequest(c, "email too long")
		return
	}

	userID, err := h.idp.SignIn(c.Request.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			response.Unauthorized(c, "Invalid credentials.")
			return
		}
		h.internalError(c, "login", err)
		return
	}

	issued, err := h.svc.Create(userID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.internalError(c, "login", err)
		return
	}

	h.policy.setPair(c, issued)
	response.OK(c, gin.H{"ok": true})
}

func (h *Handler) signup(c *gin.Context) {
	var dto SignupDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Missing required fields.")
		return
	}
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Image = strings.TrimSpace(dto.Image)

	if dto.Email == "" || dto.Password == "" {
		response.BadRequest(c, "Missing required fields.")
		return
	}
	if len(dto.Email) > maxEmailLength {
		response.BadRequest(c, "Email too long.")
		return
	}
	if dto.Name != "" && len(dto.Name) > maxNameLength {
		response.BadRequest(c, "Name too long.")
		return
	}
	if len(dto.Password) < minPasswordLength {
		response.BadRequest(c, "Password too short.")
		return
	}

	ctx := c.Request.Context()
	if err := h.idp.SignUp(ctx, dto.Email, dto.Password, dto.Name, dto.Image); err != nil {
		var upErr *identity.SignUpError
		if errors.As(err, &upErr) {
			response.BadRequest(c, upErr.Message)
			return
		}
		h.internalError(c, "signup", err)
		return
	}

	// The provider does not auto-sign-in new accounts; verify the fresh
	// credentials to learn the user id.
	userID, err := h.idp.SignIn(ctx, dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			response.BadRequest(c, "Unable to sign in.")
			return
		}
		h.internalError(c, "signup", err)
		return
	}

	issued, err := h.svc.Create(userID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.internalError(c, "signup", err)
		return
	}

	h.policy.setPair(c, issued)
	c.Redirect(http.StatusFound, sanitizeCallbackURL(dto.CallbackURL))
}

func (h *Handler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(h.policy.refreshName)
	if err != nil || refreshToken == "" {
		// The structured cookie API came up empty. If a naive scan of the
		// raw header still finds the token, the two strategies disagree;
		// tell the client to retry rather than kill the session.
		if rawCookieValue(c.GetHeader("Cookie"), h.policy.refreshName) != "" {
			response.TooEarly(c, "retry")
			return
		}
		response.Unauthorized(c, "missing refresh token")
		return
	}

	issued, err := h.svc.Rotate(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.policy.clearPair(c)
			response.Unauthorized(c, "invalid refresh")
		case errors.Is(err, ErrRefreshExpired):
			h.policy.clearPair(c)
			response.Unauthorized(c, "refresh expired")
		default:
			h.internalError(c, "refresh", err)
		}
		return
	}

	h.policy.setPair(c, issued)
	response.OK(c, gin.H{"ok": true})
}

func (h *Handler) logout(c *gin.Context) {
	sessionID, _ := c.Cookie(h.policy.sessionName)
	refreshToken, _ := c.Cookie(h.policy.refreshName)

	if sessionID != "" || refreshToken != "" {
		if err := h.svc.Delete(sessionID, refreshToken); err != nil {
			// Best effort: the cookies get cleared either way.
			h.logger.Warn("logout session delete failed", zap.Error(err))
		}
	}

	h.policy.clearPair(c)
	response.OK(c, gin.H{"ok": true})
}

func (h *Handler) cleanup(c *gin.Context) {
	if !h.cleanupAuthorized(c.GetHeader("Authorization")) {
		response.Unauthorized(c, "unauthorized")
		return
	}

	deleted, err := h.svc.Sweep(time.Now())
	if err != nil {
		h.logger.Error("session sweep failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

func (h *Handler) checkEmail(c *gin.Context) {
	var dto CheckEmailDTO
	if err := c.ShouldBindJSON(&dto); err != nil || dto.Email == "" {
		response.BadRequest(c, "Email is required")
		return
	}
	if len(dto.Email) > maxEmailLength {
		response.BadRequest(c, "Email too long")
		return
	}

	exists, err := h.svc.EmailExists(dto.Email)
	if err != nil {
		h.logger.Error("email lookup failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"exists": exists})
}

func (h *Handler) session(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, gin.H{
		"user": gin.H{
			"id":    p.UserID,
			"email": p.Email,
			"name":  p.Name,
		},
		"expiresAt": p.ExpiresAt,
	})
}

// cleanupAuthorized compares the Authorization header against the configured
// cron secret in constant time. An unset secret authorizes nothing.
func (h *Handler) cleanupAuthorized(authz string) bool {
	if h.cronSecret == "" {
		return false
	}
	expected := "Bearer " + h.cronSecret
	return subtle.ConstantTimeCompare([]byte(authz), []byte(expected)) == 1
}

// internalError rolls the client back to a clean state: opaque 500 and no
// lingering partial cookies.
func (h *Handler) internalError(c *gin.Context, flow string, err error) {
	h.logger.Error(flow+" failed", zap.Error(err))
	h.policy.clearPair(c)
	response.InternalError(c)
}

// sanitizeCallbackURL keeps the post-signup redirect on this origin.
func sanitizeCallbackURL(raw string) string {
	callback := strings.TrimSpace(raw)
	if callback == "" || !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") {
		return defaultCallbackURL
	}
	return callback
}
