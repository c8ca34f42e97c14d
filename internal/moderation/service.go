package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"safefeed/internal/domain"
)

const escalationTimeout = 10 * time.Second

// Classifier produces a verdict for every input; it has no error path.
type Classifier interface {
	ClassifyForUser(ctx context.Context, text, userID string) domain.Verdict
}

// Escalator is told about content that needs immediate human attention.
type Escalator interface {
	EscalateContent(ctx context.Context, item domain.ContentItem) error
}

// Labeler receives admin decisions on flagged content as human labels.
type Labeler interface {
	RecordHumanLabel(item domain.ContentItem, isHateSpeech bool)
}

type Options struct {
	MaxBodyLength int
	Escalator     Escalator
	Labeler       Labeler
	Now           func() time.Time
}

// Service runs submissions through classification and policy and applies the
// admin command surface.
type Service struct {
	store      Store
	classifier Classifier
	escalator  Escalator
	labeler    Labeler
	logger     *zap.Logger
	maxBody    int
	now        func() time.Time
	wg         sync.WaitGroup
}

func NewService(store Store, classifier Classifier, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodyLength <= 0 {
		opts.MaxBodyLength = 5000
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:      store,
		classifier: classifier,
		escalator:  opts.Escalator,
		labeler:    opts.Labeler,
		logger:     logger,
		maxBody:    opts.MaxBodyLength,
		now:        opts.Now,
	}
}

type Submission struct {
	Kind      domain.ContentKind
	PostID    int64
	AuthorID  string
	Body      string
	IPAddress string
}

type SubmitResult struct {
	Item     domain.ContentItem
	Verdict  domain.Verdict
	Decision Decision
	// ReportID is zero when no auto-report was needed or the write failed.
	ReportID int64
}

func (s *Service) SubmitPost(ctx context.Context, authorID, body, ip string) (SubmitResult, error) {
	return s.Submit(ctx, Submission{Kind: domain.KindPost, AuthorID: authorID, Body: body, IPAddress: ip})
}

func (s *Service) SubmitComment(ctx context.Context, postID int64, authorID, body, ip string) (SubmitResult, error) {
	return s.Submit(ctx, Submission{Kind: domain.KindComment, PostID: postID, AuthorID: authorID, Body: body, IPAddress: ip})
}

func (s *Service) validate(sub Submission) error {
	if _, err := domain.ParseContentKind(string(sub.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	if strings.TrimSpace(sub.AuthorID) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(sub.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidSubmission)
	}
	if n := utf8.RuneCountInString(sub.Body); n > s.maxBody {
		return fmt.Errorf("%w: body is %d characters, limit is %d", ErrInvalidSubmission, n, s.maxBody)
	}
	if sub.Kind == domain.KindComment && sub.PostID <= 0 {
		return fmt.Errorf("%w: comment requires a post id", ErrInvalidSubmission)
	}
	if sub.Kind == domain.KindPost && sub.PostID != 0 {
		return fmt.Errorf("%w: post cannot reference a post id", ErrInvalidSubmission)
	}
	return nil
}

// Submit validates, classifies, decides and stores one item. The item is
// persisted with its final status; follow-up reporting and escalation never
// fail the submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	if err := s.validate(sub); err != nil {
		return SubmitResult{}, err
	}
	if err := s.checkAuthor(ctx, sub.AuthorID); err != nil {
		return SubmitResult{}, err
	}
	if sub.Kind == domain.KindComment {
		if _, err := s.store.GetContent(ctx, domain.KindPost, sub.PostID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return SubmitResult{}, fmt.Errorf("post %d: %w", sub.PostID, ErrNotFound)
			}
			return SubmitResult{}, fmt.Errorf("load post %d: %w", sub.PostID, err)
		}
	}

	verdict := s.classifier.ClassifyForUser(ctx, sub.Body, sub.AuthorID)
	decision := Decide(verdict)
	now := s.now()

	item := domain.ContentItem{
		Kind:       sub.Kind,
		PostID:     sub.PostID,
		AuthorID:   sub.AuthorID,
		Body:       sub.Body,
		IPAddress:  sub.IPAddress,
		Status:     decision.Status,
		Flagged:    decision.Status == domain.StatusFlagged,
		Severity:   verdict.Severity,
		Categories: verdict.Categories,
		Confidence: verdict.Confidence,
		Source:     verdict.Source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	id, err := s.store.CreateContent(ctx, item)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("store %s: %w", sub.Kind, err)
	}
	item.ID = id
	decisionCount.WithLabelValues(string(item.Kind), string(item.Status), string(verdict.Source)).Inc()
	s.logger.Info("content moderated",
		zap.String("kind", string(item.Kind)),
		zap.Int64("id", item.ID),
		zap.String("status", string(item.Status)),
		zap.String("severity", string(verdict.Severity)),
		zap.Float64("confidence", verdict.Confidence),
		zap.Strings("categories", verdict.Categories),
		zap.String("source", string(verdict.Source)),
	)

	result := SubmitResult{Item: item, Verdict: verdict, Decision: decision}
	if decision.AutoReport {
		result.ReportID = s.fileAutoReport(ctx, item)
	}
	if verdict.RequiresImmediateAction {
		s.escalate(item)
	}
	return result, nil
}

func (s *Service) checkAuthor(ctx context.Context, authorID string) error {
	profile, err := s.store.GetProfile(ctx, authorID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		s.logger.Warn("author lookup failed", zap.String("author", authorID), zap.Error(err))
		return nil
	case profile.Banned:
		return ErrAuthorBanned
	}
	return nil
}

func (s *Service) fileAutoReport(ctx context.Context, item domain.ContentItem) int64 {
	report, err := AutoReportFor(item, s.now())
	if err != nil {
		autoReportCount.WithLabelValues("error").Inc()
		s.logger.Error("auto-report failed", zap.Int64("id", item.ID), zap.Error(err))
		return 0
	}
	id, err := s.store.CreateReport(ctx, report)
	if err != nil {
		autoReportCount.WithLabelValues("error").Inc()
		s.logger.Error("auto-report failed",
			zap.String("kind", string(item.Kind)),
			zap.Int64("id", item.ID),
			zap.Error(err),
		)
		return 0
	}
	autoReportCount.WithLabelValues("ok").Inc()
	return id
}

func (s *Service) escalate(item domain.ContentItem) {
	if s.escalator == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), escalationTimeout)
		defer cancel()
		if err := s.escalator.EscalateContent(ctx, item); err != nil {
			escalationCount.WithLabelValues("error").Inc()
			s.logger.Warn("escalation failed", zap.Int64("id", item.ID), zap.Error(err))
			return
		}
		escalationCount.WithLabelValues("ok").Inc()
	}()
}

// Wait blocks until detached escalations finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// UserReport is a report filed by a person against a post or comment.
type UserReport struct {
	ReporterID string
	Kind       domain.ContentKind
	TargetID   int64
	Reason     string
}

// ReportContent files a user report. The reported author and a snapshot of
// the body are taken from the live item.
func (s *Service) ReportContent(ctx context.Context, in UserReport) (domain.Report, error) {
	if strings.TrimSpace(in.ReporterID) == "" {
		return domain.Report{}, fmt.Errorf("%w: reporter is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return domain.Report{}, fmt.Errorf("%w: reason is required", ErrInvalidSubmission)
	}
	target, err := domain.NewReportTarget(in.Kind, in.TargetID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	item, err := s.store.GetContent(ctx, target.Kind(), target.ID())
	if err != nil {
		return domain.Report{}, err
	}
	report := domain.Report{
		ReporterID:      in.ReporterID,
		ReportedUserID:  item.AuthorID,
		Target:          target,
		Reason:          strings.TrimSpace(in.Reason),
		Status:          domain.ReportPending,
		ContentSnapshot: item.Body,
		CreatedAt:       s.now(),
	}
	id, err := s.store.CreateReport(ctx, report)
	if err != nil {
		return domain.Report{}, fmt.Errorf("store report: %w", err)
	}
	report.ID = id
	return report, nil
}

// Feed lists content visible to the viewer, each rendered through View.
func (s *Service) Feed(ctx context.Context, filter ContentFilter, viewer Viewer) ([]FeedEntry, error) {
	items, err := s.store.ListContent(ctx, filter)
	if err != nil {
		return nil, err
	}
	entries := make([]FeedEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, FeedEntry{Item: item, View: View(item, viewer)})
	}
	return entries, nil
}

type FeedEntry struct {
	Item domain.ContentItem
	View ContentView
}
