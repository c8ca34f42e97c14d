package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

const defaultJobTimeout = 30 * time.Second

type HealthProber interface {
	Probe(ctx context.Context) error
}

type Retrainer interface {
	RetrainIfReady(ctx context.Context, minLabeled int) (bool, error)
}

type ReportLister interface {
	ListReports(ctx context.Context, filter moderation.ReportFilter) []moderation.ReportListing
}

type DigestPoster interface {
	PostReportDigest(ctx context.Context, listings []moderation.ReportListing) error
}

// Config holds standard 5-field cron expressions. An empty schedule
// disables its job.
type Config struct {
	HealthSchedule    string
	RetrainSchedule   string
	DigestSchedule    string
	RetrainMinLabeled int
	Location          *time.Location
	JobTimeout        time.Duration
}

// Jobs are the collaborators of the periodic jobs. A nil collaborator
// disables the jobs that need it.
type Jobs struct {
	Prober    HealthProber
	Retrainer Retrainer
	Reports   ReportLister
	Digest    DigestPoster
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    Jobs
	cfg     Config
	logger  *zap.Logger
	entries []string
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

func New(cfg Config, jobs Jobs, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	cl := cronLogger{s: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:   jobs,
		cfg:    cfg,
		logger: logger,
	}

	add := func(name, spec string, enabled bool, run func(context.Context) error) error {
		spec = strings.TrimSpace(spec)
		if spec == "" || !enabled {
			logger.Info("scheduled job disabled", zap.String("job", name))
			return nil
		}
		_, err := s.cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
			defer cancel()
			start := time.Now()
			err := run(ctx)
			jobRuns.WithLabelValues(name, outcome(err)).Inc()
			if err != nil {
				logger.Warn("scheduled job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s job '%s': %w", name, spec, err)
		}
		s.entries = append(s.entries, name)
		logger.Info("scheduled job", zap.String("job", name), zap.String("cron", spec))
		return nil
	}

	if err := add("health_probe", cfg.HealthSchedule, jobs.Prober != nil, s.ProbeHealth); err != nil {
		return nil, err
	}
	if err := add("retrain", cfg.RetrainSchedule, jobs.Retrainer != nil, s.Retrain); err != nil {
		return nil, err
	}
	if err := add("report_digest", cfg.DigestSchedule, jobs.Reports != nil && jobs.Digest != nil, s.PostDigest); err != nil {
		return nil, err
	}
	return s, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Jobs returns the names of the enabled jobs.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.entries...)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) ProbeHealth(ctx context.Context) error {
	return s.jobs.Prober.Probe(ctx)
}

func (s *Scheduler) Retrain(ctx context.Context) error {
	started, err := s.jobs.Retrainer.RetrainIfReady(ctx, s.cfg.RetrainMinLabeled)
	if err != nil {
		return err
	}
	if started {
		s.logger.Info("model retrain started")
	}
	return nil
}

// PostDigest sends the pending-report summary.
func (s *Scheduler) PostDigest(ctx context.Context) error {
	listings := s.jobs.Reports.ListReports(ctx, moderation.ReportFilter{Status: domain.ReportPending})
	return s.jobs.Digest.PostReportDigest(ctx, listings)
}
