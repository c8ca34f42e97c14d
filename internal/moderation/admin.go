package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"safefeed/internal/domain"
)

type CommandType string

const (
	CommandPost    CommandType = "post"
	CommandComment CommandType = "comment"
	CommandReport  CommandType = "report"
	CommandUser    CommandType = "user"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionRemove  Action = "remove"
	ActionBan     Action = "ban"
	ActionResolve Action = "resolve"
)

// Command is one admin moderation request. ID is a numeric record id for
// posts, comments and reports, and a user id for users.
type Command struct {
	Type   CommandType
	ID     string
	Action Action
}

var allowedActions = map[CommandType]map[Action]bool{
	CommandPost:    {ActionApprove: true, ActionRemove: true},
	CommandComment: {ActionApprove: true, ActionRemove: true},
	CommandReport:  {ActionApprove: true, ActionResolve: true},
	CommandUser:    {ActionBan: true},
}

// Validate rejects unknown (type, action) pairs and malformed ids.
func (c Command) Validate() error {
	actions, ok := allowedActions[c.Type]
	if !ok || !actions[c.Action] {
		return fmt.Errorf("%w: %q on %q", ErrInvalidAction, c.Action, c.Type)
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidAction)
	}
	if c.Type != CommandUser {
		if _, err := c.numericID(); err != nil {
			return err
		}
	}
	return nil
}

func (c Command) numericID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.ID), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", ErrInvalidAction, c.Type, c.ID)
	}
	return id, nil
}

// Viewer is the identity a request is made as.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// ResolveViewer looks up the admin flag for a user. Unknown or anonymous
// users are plain viewers.
func (s *Service) ResolveViewer(ctx context.Context, userID string) Viewer {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Viewer{}
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("viewer lookup failed", zap.String("user", userID), zap.Error(err))
		}
		return Viewer{UserID: userID}
	}
	return Viewer{UserID: userID, IsAdmin: profile.IsAdmin}
}

// Moderate applies an admin command. Approve, resolve and ban are
// idempotent; removing a record that is already gone returns ErrNotFound.
func (s *Service) Moderate(ctx context.Context, actor Viewer, cmd Command) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	var err error
	switch cmd.Type {
	case CommandPost, CommandComment:
		kind := domain.ContentKind(cmd.Type)
		id, _ := cmd.numericID()
		item, getErr := s.store.GetContent(ctx, kind, id)
		if getErr != nil {
			return getErr
		}
		switch cmd.Action {
		case ActionApprove:
			if !domain.CanTransition(item.Status, domain.StatusApproved) {
				return fmt.Errorf("%w: %s %d cannot be approved from status %q", ErrInvalidAction, kind, id, item.Status)
			}
			err = s.store.ApproveContent(ctx, kind, id, s.now())
		case ActionRemove:
			err = s.store.DeleteContent(ctx, kind, id)
		}
		if err == nil && item.Flagged && s.labeler != nil {
			s.labeler.RecordHumanLabel(item, cmd.Action == ActionRemove)
		}
	case CommandReport:
		id, _ := cmd.numericID()
		err = s.store.ResolveReport(ctx, id, s.now())
	case CommandUser:
		err = s.store.BanProfile(ctx, strings.TrimSpace(cmd.ID))
	}
	if err != nil {
		return err
	}

	adminActionCount.WithLabelValues(string(cmd.Type), string(cmd.Action)).Inc()
	s.logger.Info("admin action applied",
		zap.String("admin", actor.UserID),
		zap.String("type", string(cmd.Type)),
		zap.String("id", cmd.ID),
		zap.String("action", string(cmd.Action)),
	)
	return nil
}
