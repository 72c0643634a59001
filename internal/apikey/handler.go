package apikey

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dualog/backend/internal/dto"
	"github.com/dualog/backend/internal/shared"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store    *Store
	sessions *user.SessionManager
	logger   *slog.Logger
}

func NewHandler(store *Store, sessions *user.SessionManager, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) requireUser(c echo.Context, mutating bool) (string, error) {
	_, rec, err := h.sessions.Get(c)
	if err != nil {
		return "", shared.Unauthorized("Authentication required")
	}

	if mutating {
		if err := h.sessions.RequireCSRF(c, rec); err != nil {
			return "", err
		}
	}

	return rec.UserID, nil
}

func keyToResponse(k *APIKey, display string) dto.APIKeyResponse {
	resp := dto.APIKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Key:       display,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}

	if k.LastUsed != nil {
		lastUsed := k.LastUsed.Format(time.RFC3339)
		resp.LastUsed = &lastUsed
	}

	if k.ExpiresAt != nil {
		expiresAt := k.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &expiresAt
	}

	return resp
}

// Create godoc
// @Summary      Create an API key
// @Description  Issues a bearer key for agent access. The full key is returned only in this response.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateAPIKeyRequest  true  "Key details"
// @Success      201      {object}  dto.APIKeyResponse
// @Failure      400      {object}  shared.ErrorEnvelope
// @Failure      401      {object}  shared.ErrorEnvelope
// @Failure      500      {object}  shared.ErrorEnvelope
// @Router       /api-keys [post]
func (h *Handler) Create(c echo.Context) error {
	userID, err := h.requireUser(c, true)
	if err != nil {
		return err
	}

	var req dto.CreateAPIKeyRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("INVALID_REQUEST", "Invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return shared.BadRequest("INVALID_NAME", "Name is required and must be a non-empty string")
	}

	key := &APIKey{
		OwnerID: userID,
		Name:    name,
	}

	if req.ExpiresIn != nil {
		if *req.ExpiresIn <= 0 {
			return shared.BadRequest("INVALID_EXPIRY", "expires_in must be a positive number of seconds")
		}
		expiresAt := time.Now().Add(time.Duration(*req.ExpiresIn) * time.Second)
		key.ExpiresAt = &expiresAt
	}

	secret, err := h.store.Create(c.Request().Context(), key)
	if err != nil {
		h.logger.Error("failed to create api key", "error", err, "user_id", userID)
		return shared.InternalError("Failed to create API key")
	}

	return c.JSON(http.StatusCreated, keyToResponse(key, secret))
}

// List godoc
// @Summary      List API keys
// @Description  Returns the caller's keys with the secret redacted.
// @Tags         api-keys
// @Produce      json
// @Success      200  {object}  dto.APIKeyListResponse
// @Failure      401  {object}  shared.ErrorEnvelope
// @Failure      500  {object}  shared.ErrorEnvelope
// @Router       /api-keys [get]
func (h *Handler) List(c echo.Context) error {
	userID, err := h.requireUser(c, false)
	if err != nil {
		return err
	}

	keys, err := h.store.GetByOwner(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list api keys", "error", err, "user_id", userID)
		return shared.InternalError("Failed to fetch API keys")
	}

	resp := dto.APIKeyListResponse{APIKeys: make([]dto.APIKeyResponse, len(keys))}
	for i, k := range keys {
		resp.APIKeys[i] = keyToResponse(k, k.Redacted())
	}

	return c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete an API key
// @Tags         api-keys
// @Produce      json
// @Param        id  path  string  true  "API key id"
// @Success      200  {object}  dto.DeleteAPIKeyResponse
// @Failure      401  {object}  shared.ErrorEnvelope
// @Failure      403  {object}  shared.ErrorEnvelope
// @Failure      404  {object}  shared.ErrorEnvelope
// @Router       /api-keys/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	userID, err := h.requireUser(c, true)
	if err != nil {
		return err
	}

	key, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("API key not found")
		}
		h.logger.Error("failed to get api key", "error", err, "key_id", c.Param("id"))
		return shared.InternalError("Failed to fetch API key")
	}

	if key.OwnerID != userID {
		return shared.Forbidden("You do not have permission to delete this API key")
	}

	if err := h.store.Delete(c.Request().Context(), key.ID); err != nil {
		h.logger.Error("failed to delete api key", "error", err, "key_id", key.ID)
		return shared.InternalError("Failed to delete API key")
	}

	return c.JSON(http.StatusOK, dto.DeleteAPIKeyResponse{Message: "API key deleted successfully"})
}
