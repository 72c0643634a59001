package markdown

import (
	"log/slog"
	"net/http"

	"github.com/dualog/backend/internal/auth"
	"github.com/dualog/backend/internal/dto"
	"github.com/dualog/backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	renderer *Renderer
	logger   *slog.Logger
}

func NewHandler(renderer *Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		renderer: renderer,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group, mw *auth.Middleware) {
	api.POST("/markdown/preview", h.Preview, mw.Session)
}

// Preview godoc
// @Summary      Render a markdown preview
// @Description  Converts markdown to HTML for the editor preview pane.
// @Tags         markdown
// @Accept       json
// @Produce      json
// @Param        request  body      dto.MarkdownPreviewRequest  true  "Markdown source"
// @Success      200      {object}  dto.MarkdownPreviewResponse
// @Failure      401      {object}  shared.ErrorEnvelope
// @Router       /markdown/preview [post]
func (h *Handler) Preview(c echo.Context) error {
	var req dto.MarkdownPreviewRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("INVALID_BODY", "invalid request body")
	}

	rendered, err := h.renderer.Render(req.Content)
	if err != nil {
		h.logger.Error("markdown rendering failed", "error", err)
		return shared.InternalError("failed to render markdown")
	}

	return c.JSON(http.StatusOK, dto.MarkdownPreviewResponse{HTML: rendered})
}
