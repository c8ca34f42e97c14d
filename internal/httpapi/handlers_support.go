package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safefeed/internal/integrations/classifier"
	"safefeed/internal/support"
)

const statusTimeout = 3 * time.Second

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// supportChatRequest accepts either a single message or a chat transcript,
// in which case the last message is answered.
type supportChatRequest struct {
	Message  string        `json:"message" validate:"required_without=Messages,max=4000"`
	Messages []chatMessage `json:"messages" validate:"required_without=Message"`
}

func (r supportChatRequest) text() string {
	if strings.TrimSpace(r.Message) != "" {
		return r.Message
	}
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

func (s *Server) handleSupportChat(c echo.Context) error {
	var req supportChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	text := req.text()
	if strings.TrimSpace(text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no message provided")
	}
	reply := s.support.Respond(c.Request().Context(), viewerID(c), text)
	return c.JSON(http.StatusOK, reply)
}

func (s *Server) handleResources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"resources": support.Resources(),
	})
}

func (s *Server) handleMLStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), statusTimeout)
	defer cancel()
	return c.JSON(http.StatusOK, s.classifier.Status(ctx))
}

// handleMLStats combines model service statistics with local moderation
// counts. Either half may be missing.
func (s *Server) handleMLStats(c echo.Context) error {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), statusTimeout)
	defer cancel()

	out := map[string]any{"timestamp": time.Now().UTC()}
	if stats, err := s.classifier.Stats(ctx); err != nil {
		out["mlError"] = err.Error()
	} else {
		out["ml"] = stats
	}
	if s.stats != nil {
		since := time.Now().UTC().AddDate(0, 0, -int(days))
		local, err := s.stats.GetModerationStats(ctx, since)
		if err != nil {
			s.logger.Warn("local moderation stats failed", zap.Error(err))
			out["localError"] = "unavailable"
		} else {
			out["local"] = local
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleReportAbuse(c echo.Context) error {
	var req classifier.AbuseReport
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.UserID == "" {
		req.UserID = viewerID(c)
	}
	receipt, err := s.classifier.ReportAbuse(c.Request().Context(), req)
	if err != nil {
		s.logger.Warn("abuse report forwarding failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "abuse report service unavailable")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "reportId": receipt.ReportID, "prediction": receipt.Prediction})
}
