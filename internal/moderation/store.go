package moderation

import (
	"context"
	"errors"
	"time"

	"safefeed/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAction     = errors.New("invalid moderation action")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrAuthorBanned      = errors.New("author is banned")
	ErrForbidden         = errors.New("forbidden")
)

type ContentFilter struct {
	Kind     domain.ContentKind
	PostID   int64
	AuthorID string
	Status   domain.ContentStatus
	Category string
	Limit    int
}

type ReportFilter struct {
	Status domain.ReportStatus
	Limit  int
}

// Store is the persistence collaborator. Lookups of missing rows return
// ErrNotFound.
type Store interface {
	CreateContent(ctx context.Context, item domain.ContentItem) (int64, error)
	GetContent(ctx context.Context, kind domain.ContentKind, id int64) (domain.ContentItem, error)
	ListContent(ctx context.Context, filter ContentFilter) ([]domain.ContentItem, error)
	ApproveContent(ctx context.Context, kind domain.ContentKind, id int64, at time.Time) error
	DeleteContent(ctx context.Context, kind domain.ContentKind, id int64) error

	CreateReport(ctx context.Context, report domain.Report) (int64, error)
	GetReport(ctx context.Context, id int64) (domain.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
	ResolveReport(ctx context.Context, id int64, at time.Time) error

	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	GetProfiles(ctx context.Context, userIDs []string) (map[string]domain.Profile, error)
	BanProfile(ctx context.Context, userID string) error
}
