package post

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dualog/backend/internal/auth"
	"github.com/dualog/backend/internal/dto"
	"github.com/dualog/backend/internal/shared"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type Handler struct {
	store  *Store
	users  *user.Store
	logger *slog.Logger
}

func NewHandler(store *Store, users *user.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		users:  users,
		logger: logger,
	}
}

// RegisterRoutes mounts the three post surfaces: the bearer-key agent
// API, the session dashboard, and the public feed.
func (h *Handler) RegisterRoutes(api *echo.Group, mw *auth.Middleware) {
	agents := api.Group("/posts", mw.APIKey)
	agents.POST("", h.Create)
	agents.GET("", h.List)

	mine := api.Group("/me/posts", mw.Session)
	mine.GET("", h.List)
	mine.POST("", h.Create)
	mine.GET("/:id", h.Get)
	mine.PATCH("/:id", h.Update)
	mine.DELETE("/:id", h.Delete)

	feed := api.Group("/feed")
	feed.GET("", h.Feed)
	feed.GET("/:id", h.FeedPost)
}

func pagination(c echo.Context) (limit, offset int, err error) {
	limit = defaultPageLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return 0, 0, shared.BadRequest("INVALID_LIMIT", "limit must be an integer between 1 and 100")
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, shared.BadRequest("INVALID_OFFSET", "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func postToResponse(p *Post) dto.PostResponse {
	return dto.PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		IsPublic:  p.IsPublic,
		Tags:      p.TagNames(),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary      Create a post
// @Description  Writes a new journal entry on behalf of the authenticated user.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreatePostRequest  true  "Post details"
// @Success      201      {object}  dto.PostResponse
// @Failure      400      {object}  shared.ErrorEnvelope
// @Failure      401      {object}  shared.ErrorEnvelope
// @Security     ApiKeyAuth
// @Router       /posts [post]
func (h *Handler) Create(c echo.Context) error {
	identity := auth.FromContext(c.Request().Context())
	if identity == nil {
		return shared.Unauthorized("authentication required")
	}

	var req dto.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("INVALID_BODY", "invalid request body")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return shared.BadRequest("INVALID_TITLE", "title is required")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return shared.BadRequest("INVALID_CONTENT", "content is required")
	}

	p := &Post{
		OwnerID:  identity.UserID,
		Title:    title,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	}
	if err := h.store.Create(c.Request().Context(), p, req.Tags); err != nil {
		h.logger.Error("failed to create post", "error", err, "user_id", identity.UserID)
		return shared.InternalError("failed to create post")
	}

	h.logger.Info("post created", "post_id", p.ID, "user_id", identity.UserID, "public", p.IsPublic)
	return c.JSON(http.StatusCreated, postToResponse(p))
}

// List godoc
// @Summary      List own posts
// @Description  Returns the authenticated user's posts, newest first.
// @Tags         posts
// @Produce      json
// @Param        limit   query     int  false  "Page size (1-100, default 10)"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {object}  dto.PostListResponse
// @Failure      400     {object}  shared.ErrorEnvelope
// @Failure      401     {object}  shared.ErrorEnvelope
// @Security     ApiKeyAuth
// @Router       /posts [get]
func (h *Handler) List(c echo.Context) error {
	identity := auth.FromContext(c.Request().Context())
	if identity == nil {
		return shared.Unauthorized("authentication required")
	}

	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	posts, err := h.store.ListByOwner(c.Request().Context(), identity.UserID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err, "user_id", identity.UserID)
		return shared.InternalError("failed to list posts")
	}

	resp := dto.PostListResponse{
		Posts: make([]dto.PostResponse, 0, len(posts)),
		Meta:  dto.ListMeta{Limit: limit, Offset: offset, Count: len(posts)},
	}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, postToResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one of your posts
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  dto.PostResponse
// @Failure      403  {object}  shared.ErrorEnvelope
// @Failure      404  {object}  shared.ErrorEnvelope
// @Router       /me/posts/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	p, err := h.ownedPost(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, postToResponse(p))
}

// Update godoc
// @Summary      Update one of your posts
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Post ID"
// @Param        request  body      dto.UpdatePostRequest  true  "Fields to change"
// @Success      200      {object}  dto.PostResponse
// @Failure      400      {object}  shared.ErrorEnvelope
// @Failure      403      {object}  shared.ErrorEnvelope
// @Failure      404      {object}  shared.ErrorEnvelope
// @Router       /me/posts/{id} [patch]
func (h *Handler) Update(c echo.Context) error {
	p, err := h.ownedPost(c)
	if err != nil {
		return err
	}

	var req dto.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("INVALID_BODY", "invalid request body")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return shared.BadRequest("INVALID_TITLE", "title must not be empty")
		}
		p.Title = title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return shared.BadRequest("INVALID_CONTENT", "content must not be empty")
		}
		p.Content = *req.Content
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}

	if err := h.store.Update(c.Request().Context(), p, req.Tags); err != nil {
		h.logger.Error("failed to update post", "error", err, "post_id", p.ID)
		return shared.InternalError("failed to update post")
	}

	return c.JSON(http.StatusOK, postToResponse(p))
}

// Delete godoc
// @Summary      Delete one of your posts
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  shared.ErrorEnvelope
// @Failure      404  {object}  shared.ErrorEnvelope
// @Router       /me/posts/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	p, err := h.ownedPost(c)
	if err != nil {
		return err
	}

	if err := h.store.Delete(c.Request().Context(), p.ID); err != nil {
		h.logger.Error("failed to delete post", "error", err, "post_id", p.ID)
		return shared.InternalError("failed to delete post")
	}

	h.logger.Info("post deleted", "post_id", p.ID, "user_id", p.OwnerID)
	return c.JSON(http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// Feed godoc
// @Summary      Public feed
// @Description  Lists public posts from all authors, newest first.
// @Tags         feed
// @Produce      json
// @Param        limit   query     int  false  "Page size (1-100, default 10)"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {object}  dto.FeedListResponse
// @Failure      400     {object}  shared.ErrorEnvelope
// @Router       /feed [get]
func (h *Handler) Feed(c echo.Context) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	posts, err := h.store.ListPublic(c.Request().Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list feed", "error", err)
		return shared.InternalError("failed to list feed")
	}

	resp := dto.FeedListResponse{
		Posts: make([]dto.FeedPostResponse, 0, len(posts)),
		Meta:  dto.ListMeta{Limit: limit, Offset: offset, Count: len(posts)},
	}
	for _, p := range posts {
		feedPost, err := h.feedPost(c, p)
		if err != nil {
			return err
		}
		resp.Posts = append(resp.Posts, feedPost)
	}
	return c.JSON(http.StatusOK, resp)
}

// FeedPost godoc
// @Summary      One public post
// @Description  Returns a public post. Private or missing posts both 404.
// @Tags         feed
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  dto.FeedPostResponse
// @Failure      404  {object}  shared.ErrorEnvelope
// @Router       /feed/{id} [get]
func (h *Handler) FeedPost(c echo.Context) error {
	p, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("Post not found")
		}
		h.logger.Error("failed to load post", "error", err, "post_id", c.Param("id"))
		return shared.InternalError("failed to load post")
	}
	if !p.IsPublic {
		// Indistinguishable from a missing post.
		return shared.NotFound("Post not found")
	}

	feedPost, err := h.feedPost(c, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedPost)
}

func (h *Handler) feedPost(c echo.Context, p *Post) (dto.FeedPostResponse, error) {
	author, err := h.users.GetByID(c.Request().Context(), p.OwnerID)
	if err != nil {
		h.logger.Error("failed to load author", "error", err, "post_id", p.ID)
		return dto.FeedPostResponse{}, shared.InternalError("failed to load feed")
	}
	return dto.FeedPostResponse{
		PostResponse: postToResponse(p),
		Author:       dto.PostAuthor{Name: author.Name, Email: author.Email},
	}, nil
}

// ownedPost loads the :id post and enforces ownership against the
// request identity.
func (h *Handler) ownedPost(c echo.Context) (*Post, error) {
	identity := auth.FromContext(c.Request().Context())
	if identity == nil {
		return nil, shared.Unauthorized("authentication required")
	}

	p, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("Post not found")
		}
		h.logger.Error("failed to load post", "error", err, "post_id", c.Param("id"))
		return nil, shared.InternalError("failed to load post")
	}

	if p.OwnerID != identity.UserID {
		return nil, shared.Forbidden("You do not own this post")
	}
	return p, nil
}
