package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

type moderateRequest struct {
	Type   string `json:"type" validate:"required"`
	ID     string `json:"id" validate:"required"`
	Action string `json:"action" validate:"required"`
}

func (s *Server) handleModerate(c echo.Context) error {
	id, err := requireUser(c)
	if err != nil {
		return err
	}
	var req moderateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	actor := s.moderation.ResolveViewer(ctx, id)
	cmd := moderation.Command{
		Type:   moderation.CommandType(req.Type),
		ID:     req.ID,
		Action: moderation.Action(req.Action),
	}
	if err := s.moderation.Moderate(ctx, actor, cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "type": req.Type, "id": req.ID, "action": req.Action})
}

func (s *Server) handleListReports(c echo.Context) error {
	if _, err := s.requireAdmin(c); err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		return err
	}
	filter := moderation.ReportFilter{Limit: int(limit)}
	switch status := domain.ReportStatus(c.QueryParam("status")); status {
	case "", domain.ReportPending, domain.ReportResolved:
		filter.Status = status
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	listings := s.moderation.ListReports(c.Request().Context(), filter)
	out := make([]reportJSON, 0, len(listings))
	for _, l := range listings {
		out = append(out, renderListing(l))
	}
	return c.JSON(http.StatusOK, map[string]any{"reports": out})
}

type flaggedJSON struct {
	contentJSON
	Author *profileJSON `json:"author,omitempty"`
}

func (s *Server) handleListFlagged(c echo.Context) error {
	admin, err := s.requireAdmin(c)
	if err != nil {
		return err
	}
	kind := domain.KindComment
	if raw := c.QueryParam("type"); raw != "" {
		k, err := domain.ParseContentKind(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid type")
		}
		kind = k
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		return err
	}

	entries := s.moderation.ListFlagged(c.Request().Context(), kind, int(limit))
	out := make([]flaggedJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, flaggedJSON{
			contentJSON: renderContent(e.Item, moderation.View(e.Item, admin)),
			Author:      renderProfile(e.Author),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out})
}
