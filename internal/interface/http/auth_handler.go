package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"authgate/config"
	userapp "authgate/internal/application"
	"authgate/internal/domain/entity"
	repo "authgate/internal/domain/repository"
	"authgate/internal/interface/middleware"
	"authgate/pkg/helpers"
	"authgate/pkg/oauth"
	"authgate/pkg/response"
	"authgate/pkg/validation"
)

type AuthHandler struct {
	Svc     *userapp.Service
	Audit   repo.AuditLogRepository
	RDB     *redis.Client
	Logger  *logrus.Logger
	Cfg     *config.Config
	Google  *oauth.GoogleProvider
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *userapp.Service, audit repo.AuditLogRepository, rdb *redis.Client, logger *logrus.Logger, cfg *config.Config, google *oauth.GoogleProvider) *AuthHandler {
	return &AuthHandler{
		Svc:     svc,
		Audit:   audit,
		RDB:     rdb,
		Logger:  logger,
		Cfg:     cfg,
		Google:  google,
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}
}

func keyOAuthState(s string) string { return "oauth:state:" + s }

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *AuthHandler) audit(c *gin.Context, userID, email, action string, metadata map[string]any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Insert(c.Request.Context(), repo.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	})
	if err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "name, email, and password are required", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrEmailTaken) {
			h.audit(c, "", req.Email, "register_conflict", nil)
			response.Error[any](c, http.StatusConflict, "user already exists", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to create user", nil)
		return
	}
	h.audit(c, u.ID, u.Email, "register", nil)
	response.Success(c, http.StatusCreated, u.Public(), "user created successfully", nil)
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.audit(c, "", req.Identifier, "login_failed", nil)
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Error[any](c, http.StatusUnauthorized, "wrong password", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}
	h.issueSession(c, u, "login")
}

// GoogleRedirect GET /api/auth/google
// Issues a one-time state token and sends the browser to the provider.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	if h.Google == nil {
		response.Error[any](c, http.StatusServiceUnavailable, "google sign-in not configured", nil)
		return
	}
	state, err := genToken(32)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "state generation failed", nil)
		return
	}
	callback := c.Query("callbackurl")
	if callback == "" {
		callback = "/"
	}
	if h.RDB != nil {
		if err := h.RDB.Set(c.Request.Context(), keyOAuthState(state), callback, h.Cfg.OAuthStateTTL).Err(); err != nil {
			response.Error[any](c, http.StatusInternalServerError, "state store failed", nil)
			return
		}
	}
	c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

// GoogleCallback GET /api/auth/google/callback
// Consumes the state, resolves the provider profile, and upserts the user.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.Redirect(http.StatusFound, "/login?error=oauth")
		return
	}
	callback := "/"
	if h.RDB != nil {
		stored, err := h.RDB.GetDel(c.Request.Context(), keyOAuthState(state)).Result()
		if err != nil || stored == "" {
			c.Redirect(http.StatusFound, "/login?error=state")
			return
		}
		callback = stored
	}

	profile, err := h.Google.ResolveProfile(c.Request.Context(), code)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("google profile resolution failed")
		}
		c.Redirect(http.StatusFound, "/login?error=oauth")
		return
	}

	u, err := h.Svc.OAuthSignIn(c.Request.Context(), profile.Name, profile.Email, profile.Image)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("email", profile.Email).Error("oauth sign-in failed")
		}
		c.Redirect(http.StatusFound, "/login?error=oauth")
		return
	}

	token, exp, err := h.Svc.IssueSession(c.Request.Context(), u)
	if err != nil {
		c.Redirect(http.StatusFound, "/login?error=session")
		return
	}
	h.Cookies.SetSession(c, token, exp)
	h.audit(c, u.ID, u.Email, "oauth_signin", map[string]any{"provider": "google"})
	c.Redirect(http.StatusFound, callback)
}

// Edit PATCH /api/auth/edit (multipart form: name?, email?, image?)
// Runs as one linear sequence: upload, apply updates, persist, respond.
func (h *AuthHandler) Edit(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	in := userapp.UpdateProfileInput{
		Name:  c.PostForm("name"),
		Email: c.PostForm("email"),
	}

	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "unreadable image file", nil)
			return
		}
		defer func() { _ = f.Close() }()
		in.Image = f
		in.ImageFilename = fh.Filename
		in.ImageContentType = fh.Header.Get("Content-Type")
	}

	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, in)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "email already registered", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "failed to update profile", nil)
		}
		return
	}

	// Session claims go stale after an edit; reissue so the cookie snapshot
	// matches the persisted record.
	h.issueSessionQuiet(c, u)
	h.audit(c, u.ID, u.Email, "profile_update", map[string]any{"image": in.Image != nil})
	response.Success(c, http.StatusOK, u.Public(), "user updated successfully", nil)
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	h.Cookies.Clear(c)
	h.audit(c, uid, "", "logout", nil)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

func (h *AuthHandler) issueSession(c *gin.Context, u *entity.User, action string) {
	token, exp, err := h.Svc.IssueSession(c.Request.Context(), u)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to issue session", nil)
		return
	}
	h.Cookies.SetSession(c, token, exp)
	h.audit(c, u.ID, u.Email, action, nil)
	response.Success(c, http.StatusOK, u.Public(), "login successful", map[string]any{"expires_at": exp})
}

func (h *AuthHandler) issueSessionQuiet(c *gin.Context, u *entity.User) {
	token, exp, err := h.Svc.IssueSession(c.Request.Context(), u)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", u.ID).Warn("session reissue failed")
		}
		return
	}
	h.Cookies.SetSession(c, token, exp)
}
