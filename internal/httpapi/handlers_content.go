package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

const defaultListLimit = 50

type createPostRequest struct {
	Content string `json:"content" validate:"required"`
}

type createCommentRequest struct {
	PostID  int64  `json:"postId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required"`
}

type submitResponse struct {
	Item       contentJSON     `json:"item"`
	Moderation *moderationJSON `json:"moderation"`
	ReportID   int64           `json:"reportId,omitempty"`
}

func (s *Server) submit(c echo.Context, sub moderation.Submission) error {
	ctx := c.Request().Context()
	res, err := s.moderation.Submit(ctx, sub)
	if err != nil {
		return err
	}
	viewer := s.moderation.ResolveViewer(ctx, sub.AuthorID)
	verdict := authorVerdictJSON(res.Verdict)
	if viewer.IsAdmin {
		verdict = verdictJSON(res.Verdict)
	}
	return c.JSON(http.StatusCreated, submitResponse{
		Item:       renderContent(res.Item, moderation.View(res.Item, viewer)),
		Moderation: verdict,
		ReportID:   res.ReportID,
	})
}

func (s *Server) handleCreatePost(c echo.Context) error {
	author, err := requireUser(c)
	if err != nil {
		return err
	}
	var req createPostRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.submit(c, moderation.Submission{
		Kind:      domain.KindPost,
		AuthorID:  author,
		Body:      req.Content,
		IPAddress: c.RealIP(),
	})
}

func (s *Server) handleCreateComment(c echo.Context) error {
	author, err := requireUser(c)
	if err != nil {
		return err
	}
	var req createCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.submit(c, moderation.Submission{
		Kind:      domain.KindComment,
		PostID:    req.PostID,
		AuthorID:  author,
		Body:      req.Content,
		IPAddress: c.RealIP(),
	})
}

func queryInt(c echo.Context, name string, def int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func contentFilter(c echo.Context, kind domain.ContentKind) (moderation.ContentFilter, error) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		return moderation.ContentFilter{}, err
	}
	filter := moderation.ContentFilter{
		Kind:     kind,
		AuthorID: c.QueryParam("author"),
		Category: c.QueryParam("category"),
		Limit:    int(limit),
	}
	switch status := domain.ContentStatus(c.QueryParam("status")); status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusFlagged:
		filter.Status = status
	default:
		return moderation.ContentFilter{}, echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return filter, nil
}

func (s *Server) list(c echo.Context, filter moderation.ContentFilter) error {
	ctx := c.Request().Context()
	viewer := s.moderation.ResolveViewer(ctx, viewerID(c))
	entries, err := s.moderation.Feed(ctx, filter, viewer)
	if err != nil {
		return err
	}
	out := make([]contentJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, renderContent(e.Item, e.View))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out})
}

func (s *Server) handleListPosts(c echo.Context) error {
	filter, err := contentFilter(c, domain.KindPost)
	if err != nil {
		return err
	}
	return s.list(c, filter)
}

func (s *Server) handleListComments(c echo.Context) error {
	filter, err := contentFilter(c, domain.KindComment)
	if err != nil {
		return err
	}
	postID, err := queryInt(c, "postId", 0)
	if err != nil {
		return err
	}
	filter.PostID = postID
	return s.list(c, filter)
}

type reportRequest struct {
	Type     string `json:"type" validate:"required,oneof=post comment"`
	TargetID int64  `json:"targetId" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"required,max=1000"`
}

func (s *Server) handleReport(c echo.Context) error {
	reporter, err := requireUser(c)
	if err != nil {
		return err
	}
	var req reportRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	report, err := s.moderation.ReportContent(c.Request().Context(), moderation.UserReport{
		ReporterID: reporter,
		Kind:       domain.ContentKind(req.Type),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, renderReport(report))
}
