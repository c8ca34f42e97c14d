package moderation

import (
	"time"

	"safefeed/internal/domain"
)

// Decision is the policy outcome for a verdict.
type Decision struct {
	Status     domain.ContentStatus
	AutoReport bool
}

// Decide flags hate speech and approves everything else. It never yields
// pending and depends on nothing but the verdict.
func Decide(v domain.Verdict) Decision {
	if v.IsHateSpeech {
		return Decision{Status: domain.StatusFlagged, AutoReport: true}
	}
	return Decision{Status: domain.StatusApproved}
}

// AutoReportFor builds the system report for a flagged item that has already
// been stored.
func AutoReportFor(item domain.ContentItem, now time.Time) (domain.Report, error) {
	target, err := domain.NewReportTarget(item.Kind, item.ID)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.Report{
		ReporterID:      item.AuthorID,
		ReportedUserID:  item.AuthorID,
		Target:          target,
		Reason:          domain.AutoReportReason,
		Status:          domain.ReportPending,
		ContentSnapshot: item.Body,
		CreatedAt:       now,
	}, nil
}
