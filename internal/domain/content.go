package domain

import (
	"fmt"
	"time"
)

type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindComment ContentKind = "comment"
)

func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(s) {
	case KindPost, KindComment:
		return ContentKind(s), nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

type ContentStatus string

const (
	StatusPending  ContentStatus = "pending"
	StatusApproved ContentStatus = "approved"
	StatusFlagged  ContentStatus = "flagged"
)

// ContentItem is a post or a comment together with its moderation fields.
// PostID is set only for comments.
type ContentItem struct {
	ID         int64
	Kind       ContentKind
	PostID     int64
	AuthorID   string
	Body       string
	IPAddress  string
	Status     ContentStatus
	Flagged    bool
	Severity   Severity
	Categories []string
	Confidence float64
	Source     Source
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanTransition reports whether a stored item may move from one status to another.
// Deletion is handled separately and is always terminal.
func CanTransition(from, to ContentStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusFlagged
	case StatusFlagged:
		return to == StatusApproved
	case StatusApproved:
		return to == StatusApproved
	}
	return false
}

// Verdict reconstructs the stored moderation verdict of an item.
func (c ContentItem) Verdict() Verdict {
	return Verdict{
		IsHateSpeech: c.Flagged,
		Confidence:   c.Confidence,
		Categories:   c.Categories,
		Severity:     c.Severity,
		Source:       c.Source,
	}
}

// Profile is the display identity of a user plus its moderation flags.
type Profile struct {
	UserID    string
	Username  string
	FullName  string
	IsAdmin   bool
	Banned    bool
	CreatedAt time.Time
}

// DisplayName prefers the full name, then the username, then the raw id.
func (p Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Username != "":
		return p.Username
	}
	return p.UserID
}
