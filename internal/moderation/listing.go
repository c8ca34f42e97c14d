package moderation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"safefeed/internal/domain"
)

// TargetState describes what is known about a report's target right now.
// It is exactly one of LiveTarget, RemovedTarget or UnknownTarget.
type TargetState interface {
	isTargetState()
}

type LiveTarget struct {
	Item domain.ContentItem
}

// RemovedTarget is a target that has been deleted; only the snapshot taken
// at report time remains.
type RemovedTarget struct {
	Snapshot string
}

// UnknownTarget is used when the target lookup itself failed.
type UnknownTarget struct {
	Snapshot string
}

func (LiveTarget) isTargetState()    {}
func (RemovedTarget) isTargetState() {}
func (UnknownTarget) isTargetState() {}

type ReportListing struct {
	Report   domain.Report
	Reporter domain.Profile
	Reported domain.Profile
	Target   TargetState
	// Degraded is set when part of the join could not be loaded.
	Degraded bool
}

// ListReports joins reports with reporter and reported identities and the
// current state of their targets. Failures degrade the affected rows; a
// failed base query yields an empty list.
func (s *Service) ListReports(ctx context.Context, filter ReportFilter) []ReportListing {
	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		reportListingDegraded.Inc()
		s.logger.Error("report listing failed", zap.Error(err))
		return []ReportListing{}
	}

	ids := make([]string, 0, len(reports)*2)
	for _, r := range reports {
		ids = append(ids, r.ReporterID)
		if r.ReportedUserID != "" {
			ids = append(ids, r.ReportedUserID)
		}
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	profilesOK := err == nil
	if err != nil {
		s.logger.Warn("report listing profiles failed", zap.Error(err))
		profiles = map[string]domain.Profile{}
	}

	degraded := !profilesOK
	out := make([]ReportListing, 0, len(reports))
	for _, r := range reports {
		listing := ReportListing{
			Report:   r,
			Reporter: profileOrID(profiles, r.ReporterID),
			Degraded: !profilesOK,
		}
		if r.ReportedUserID != "" {
			listing.Reported = profileOrID(profiles, r.ReportedUserID)
		}
		listing.Target = s.targetState(ctx, r)
		if _, ok := listing.Target.(UnknownTarget); ok {
			listing.Degraded = true
		}
		degraded = degraded || listing.Degraded
		out = append(out, listing)
	}
	if degraded {
		reportListingDegraded.Inc()
	}
	return out
}

func (s *Service) targetState(ctx context.Context, r domain.Report) TargetState {
	if r.Target == nil {
		return UnknownTarget{Snapshot: r.ContentSnapshot}
	}
	item, err := s.store.GetContent(ctx, r.Target.Kind(), r.Target.ID())
	switch {
	case err == nil:
		return LiveTarget{Item: item}
	case errors.Is(err, ErrNotFound):
		return RemovedTarget{Snapshot: r.ContentSnapshot}
	default:
		s.logger.Warn("report target lookup failed", zap.Int64("report", r.ID), zap.Error(err))
		return UnknownTarget{Snapshot: r.ContentSnapshot}
	}
}

func profileOrID(profiles map[string]domain.Profile, id string) domain.Profile {
	if p, ok := profiles[id]; ok {
		return p
	}
	return domain.Profile{UserID: id}
}

type FlaggedEntry struct {
	Item   domain.ContentItem
	Author domain.Profile
}

// ListFlagged returns the review queue for one content kind, newest first.
func (s *Service) ListFlagged(ctx context.Context, kind domain.ContentKind, limit int) []FlaggedEntry {
	items, err := s.store.ListContent(ctx, ContentFilter{Kind: kind, Status: domain.StatusFlagged, Limit: limit})
	if err != nil {
		s.logger.Error("flagged listing failed", zap.String("kind", string(kind)), zap.Error(err))
		return []FlaggedEntry{}
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.AuthorID)
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		s.logger.Warn("flagged listing profiles failed", zap.Error(err))
		profiles = map[string]domain.Profile{}
	}
	out := make([]FlaggedEntry, 0, len(items))
	for _, item := range items {
		out = append(out, FlaggedEntry{Item: item, Author: profileOrID(profiles, item.AuthorID)})
	}
	return out
}
