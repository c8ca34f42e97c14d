package domain

import (
	"fmt"
	"time"
)

// ReportTarget is exactly one of PostTarget or CommentTarget.
type ReportTarget interface {
	Kind() ContentKind
	ID() int64
	isReportTarget()
}

type PostTarget struct {
	PostID int64
}

func (PostTarget) Kind() ContentKind { return KindPost }
func (t PostTarget) ID() int64       { return t.PostID }
func (PostTarget) isReportTarget()   {}

type CommentTarget struct {
	CommentID int64
}

func (CommentTarget) Kind() ContentKind { return KindComment }
func (t CommentTarget) ID() int64       { return t.CommentID }
func (CommentTarget) isReportTarget()   {}

// NewReportTarget builds the target for a content kind and id.
func NewReportTarget(kind ContentKind, id int64) (ReportTarget, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid %s id %d", kind, id)
	}
	switch kind {
	case KindPost:
		return PostTarget{PostID: id}, nil
	case KindComment:
		return CommentTarget{CommentID: id}, nil
	}
	return nil, fmt.Errorf("unknown content kind %q", kind)
}

// TargetFromColumns maps the nullable post_id/comment_id pair used in storage
// back to a target. Exactly one of the two must be set.
func TargetFromColumns(postID, commentID *int64) (ReportTarget, error) {
	switch {
	case postID != nil && commentID == nil:
		return PostTarget{PostID: *postID}, nil
	case commentID != nil && postID == nil:
		return CommentTarget{CommentID: *commentID}, nil
	}
	return nil, fmt.Errorf("report must reference exactly one of post or comment")
}

// TargetColumns is the inverse of TargetFromColumns.
func TargetColumns(t ReportTarget) (postID, commentID *int64) {
	switch v := t.(type) {
	case PostTarget:
		id := v.PostID
		return &id, nil
	case CommentTarget:
		id := v.CommentID
		return nil, &id
	}
	return nil, nil
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

const AutoReportReason = "Auto-flagged by AI moderation"

type Report struct {
	ID              int64
	ReporterID      string
	ReportedUserID  string
	Target          ReportTarget
	Reason          string
	Status          ReportStatus
	ContentSnapshot string
	CreatedAt       time.Time
	ResolvedAt      time.Time
}

// IsAutomatic reports whether the report was filed by the moderation pipeline
// on the author's own content.
func (r Report) IsAutomatic() bool {
	return r.Reason == AutoReportReason && r.ReporterID == r.ReportedUserID
}
