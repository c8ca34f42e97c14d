package httpapi

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"safefeed/internal/domain"
	"safefeed/internal/integrations/classifier"
	"safefeed/internal/moderation"
	"safefeed/internal/storage/sqlite"
	"safefeed/internal/support"
)

const (
	headerUserID = "X-User-ID"
	maxBodyBytes = "64K"
)

type Moderation interface {
	Submit(ctx context.Context, sub moderation.Submission) (moderation.SubmitResult, error)
	ReportContent(ctx context.Context, in moderation.UserReport) (domain.Report, error)
	Feed(ctx context.Context, filter moderation.ContentFilter, viewer moderation.Viewer) ([]moderation.FeedEntry, error)
	ResolveViewer(ctx context.Context, userID string) moderation.Viewer
	Moderate(ctx context.Context, actor moderation.Viewer, cmd moderation.Command) error
	ListReports(ctx context.Context, filter moderation.ReportFilter) []moderation.ReportListing
	ListFlagged(ctx context.Context, kind domain.ContentKind, limit int) []moderation.FlaggedEntry
}

type Support interface {
	Respond(ctx context.Context, userID, message string) support.Reply
}

type ClassifierStatus interface {
	Status(ctx context.Context) classifier.Status
	Stats(ctx context.Context) (map[string]any, error)
	ReportAbuse(ctx context.Context, report classifier.AbuseReport) (classifier.AbuseReceipt, error)
}

type StatsSource interface {
	GetModerationStats(ctx context.Context, since time.Time) (sqlite.ModerationStats, error)
}

type Deps struct {
	Moderation Moderation
	Support    Support
	Classifier ClassifierStatus
	// Stats is optional.
	Stats  StatsSource
	Logger *zap.Logger
}

type Server struct {
	echo       *echo.Echo
	moderation Moderation
	support    Support
	classifier ClassifierStatus
	stats      StatsSource
	logger     *zap.Logger
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

func newValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		moderation: deps.Moderation,
		support:    deps.Support,
		classifier: deps.Classifier,
		stats:      deps.Stats,
		logger:     logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(s.requestLogger)
	e.Use(MetricsMiddleware)
	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/posts", s.handleCreatePost)
	api.GET("/posts", s.handleListPosts)
	api.POST("/comments", s.handleCreateComment)
	api.GET("/comments", s.handleListComments)
	api.POST("/report", s.handleReport)
	api.POST("/report-abuse", s.handleReportAbuse)

	api.POST("/admin/moderate", s.handleModerate)
	api.GET("/admin/reports", s.handleListReports)
	api.GET("/admin/flagged", s.handleListFlagged)

	api.POST("/support-chat", s.handleSupportChat)
	api.GET("/mental-health-resources", s.handleResources)
	api.GET("/ml-status", s.handleMLStatus)
	api.GET("/ml-stats", s.handleMLStats)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// errorFor maps an error to a status code and response body.
func errorFor(err error) (int, errorResponse) {
	var (
		httpErr  *echo.HTTPError
		validErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &httpErr):
		resp := errorResponse{Error: strings.ToLower(http.StatusText(httpErr.Code))}
		if msg, ok := httpErr.Message.(string); ok {
			resp.Error = msg
		}
		return httpErr.Code, resp
	case errors.As(err, &validErr):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range validErr {
			resp.Fields = append(resp.Fields, fieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return http.StatusBadRequest, resp
	case errors.Is(err, moderation.ErrInvalidSubmission), errors.Is(err, moderation.ErrInvalidAction):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, moderation.ErrForbidden), errors.Is(err, moderation.ErrAuthorBanned):
		return http.StatusForbidden, errorResponse{Error: err.Error()}
	case errors.Is(err, moderation.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}

func statusFor(err error) int {
	code, _ := errorFor(err)
	return code
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, resp := errorFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("http request failed", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
	} else {
		s.logger.Debug("http request rejected", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		s.logger.Warn("write error response", zap.Error(err))
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)),
		)
		return nil
	}
}

// bind decodes and validates a request body.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return c.Validate(dst)
}

func viewerID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(headerUserID))
}

func requireUser(c echo.Context) (string, error) {
	id := viewerID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing "+headerUserID+" header")
	}
	return id, nil
}

func (s *Server) requireAdmin(c echo.Context) (moderation.Viewer, error) {
	id, err := requireUser(c)
	if err != nil {
		return moderation.Viewer{}, err
	}
	viewer := s.moderation.ResolveViewer(c.Request().Context(), id)
	if !viewer.IsAdmin {
		return moderation.Viewer{}, moderation.ErrForbidden
	}
	return viewer, nil
}
