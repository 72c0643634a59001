package user

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dualog/backend/internal/dto"
	"github.com/dualog/backend/internal/shared"
	"github.com/labstack/echo/v4"
)

const minPasswordLength = 8

type Handler struct {
	store     *Store
	sessions  *SessionManager
	providers Providers
	logger    *slog.Logger
}

func NewHandler(store *Store, sessions *SessionManager, providers Providers, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		sessions:  sessions,
		providers: providers,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/sign-up", h.SignUp)
	g.POST("/sign-in", h.SignIn)
	g.POST("/sign-out", h.SignOut)
	g.GET("/session", h.Session)
	g.GET("/me", h.Me)
	g.GET("/:provider/login", h.OAuthLogin)
	g.GET("/:provider/callback", h.OAuthCallback)
}

func userToResponse(u *User) dto.MeResponse {
	return dto.MeResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// SignUp godoc
// @Summary      Register with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SignUpRequest  true  "Credentials"
// @Success      201      {object}  dto.SessionResponse
// @Failure      400      {object}  shared.ErrorEnvelope
// @Failure      409      {object}  shared.ErrorEnvelope
// @Router       /auth/sign-up [post]
func (h *Handler) SignUp(c echo.Context) error {
	var req dto.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("INVALID_REQUEST", "Invalid request body")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.BadRequest("INVALID_EMAIL", "A valid email address is required")
	}

	if len(req.Password) < minPasswordLength {
		return shared.BadRequest("INVALID_PASSWORD", "Password must be at least 8 characters")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	u := &User{
		Email:       email,
		Name:        name,
		Provider:    ProviderLocal,
		ProviderSub: email,
	}
	if err := u.SetPassword(req.Password); err != nil {
		h.logger.Error("failed to hash password", "error", err)
		return shared.InternalError("Registration failed")
	}

	if err := h.store.Create(c.Request().Context(), u); err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return shared.Conflict("EMAIL_TAKEN", "An account with this email already exists")
		}
		h.logger.Error("failed to create user", "error", err, "email", email)
		return shared.InternalError("Registration failed")
	}

	return h.startSession(c, u, http.StatusCreated)
}

// SignIn godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SignInRequest  true  "Credentials"
// @Success      200      {object}  dto.SessionResponse
// @Failure      401      {object}  shared.ErrorEnvelope
// @Router       /auth/sign-in [post]
func (h *Handler) SignIn(c echo.Context) error {
	var req dto.SignInRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("INVALID_REQUEST", "Invalid request body")
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))

	u, err := h.store.GetByEmail(c.Request().Context(), email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("failed to look up user", "error", err, "email", email)
			return shared.InternalError("Login failed")
		}
		return shared.Unauthorized("Invalid email or password")
	}

	if !u.CheckPassword(req.Password) {
		return shared.Unauthorized("Invalid email or password")
	}

	return h.startSession(c, u, http.StatusOK)
}

// SignOut godoc
// @Summary      Sign out and revoke the current session
// @Tags         auth
// @Success      204  "No Content"
// @Router       /auth/sign-out [post]
func (h *Handler) SignOut(c echo.Context) error {
	if err := h.sessions.Clear(c); err != nil {
		h.logger.Warn("failed to delete session record", "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Session godoc
// @Summary      Get the current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.SessionResponse
// @Failure      401  {object}  shared.ErrorEnvelope
// @Router       /auth/session [get]
func (h *Handler) Session(c echo.Context) error {
	sessionID, rec, err := h.sessions.Get(c)
	if err != nil {
		return shared.Unauthorized("Not authenticated")
	}

	u, err := h.store.GetByID(c.Request().Context(), rec.UserID)
	if err != nil {
		return shared.Unauthorized("Not authenticated")
	}

	return c.JSON(http.StatusOK, dto.SessionResponse{
		SessionID: sessionID,
		CSRFToken: rec.CSRF,
		User:      userToResponse(u),
	})
}

// Me godoc
// @Summary      Get the current user's profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  shared.ErrorEnvelope
// @Router       /auth/me [get]
func (h *Handler) Me(c echo.Context) error {
	_, rec, err := h.sessions.Get(c)
	if err != nil {
		return shared.Unauthorized("Not authenticated")
	}

	u, err := h.store.GetByID(c.Request().Context(), rec.UserID)
	if err != nil {
		return shared.Unauthorized("Not authenticated")
	}

	return c.JSON(http.StatusOK, userToResponse(u))
}

// OAuthLogin godoc
// @Summary      Start an OAuth sign-in
// @Tags         auth
// @Param        provider  path   string  true  "Provider name (google, github)"
// @Param        redirect  query  string  false "Post-login redirect path"
// @Success      302  "Redirect to provider"
// @Failure      404  {object}  shared.ErrorEnvelope
// @Router       /auth/{provider}/login [get]
func (h *Handler) OAuthLogin(c echo.Context) error {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		return shared.NotFound("Unknown sign-in provider")
	}

	state := h.sessions.GenerateOAuthState(c.QueryParam("redirect"))
	return c.Redirect(http.StatusFound, p.AuthURL(state))
}

// OAuthCallback godoc
// @Summary      Complete an OAuth sign-in
// @Tags         auth
// @Param        provider  path   string  true  "Provider name (google, github)"
// @Success      302  "Redirect to the app"
// @Failure      401  {object}  shared.ErrorEnvelope
// @Router       /auth/{provider}/callback [get]
func (h *Handler) OAuthCallback(c echo.Context) error {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		return shared.NotFound("Unknown sign-in provider")
	}

	redirectURI, err := h.sessions.VerifyOAuthState(c.QueryParam("state"))
	if err != nil {
		return shared.Unauthorized("Invalid OAuth state")
	}

	pu, err := p.Exchange(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		h.logger.Error("oauth exchange failed", "error", err, "provider", p.Name())
		return shared.Unauthorized("Sign-in failed")
	}

	u, err := h.store.FindOrCreate(c.Request().Context(), p.Name(), pu.Sub, pu.Email, pu.Name, pu.AvatarURL)
	if err != nil {
		h.logger.Error("failed to resolve oauth user", "error", err, "provider", p.Name())
		return shared.InternalError("Sign-in failed")
	}

	if _, _, err := h.sessions.Create(c, u.ID); err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", u.ID)
		return shared.InternalError("Sign-in failed")
	}

	if redirectURI == "" {
		redirectURI = "/"
	}
	return c.Redirect(http.StatusFound, redirectURI)
}

func (h *Handler) startSession(c echo.Context, u *User, status int) error {
	sessionID, rec, err := h.sessions.Create(c, u.ID)
	if err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", u.ID)
		return shared.InternalError("Failed to create session")
	}

	return c.JSON(status, dto.SessionResponse{
		SessionID: sessionID,
		CSRFToken: rec.CSRF,
		User:      userToResponse(u),
	})
}
