package classifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

const (
	defaultTimeout         = 5 * time.Second
	defaultTrainingTimeout = 30 * time.Second
)

var errMalformed = errors.New("malformed prediction")

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
}

type Options struct {
	Timeout         time.Duration
	Thresholds      moderation.Thresholds
	Breaker         BreakerSettings
	Training        TrainingSubmitter
	TrainingTimeout time.Duration
	// Source labels verdicts produced by the predictor (ml or llm).
	Source domain.Source
}

// Gateway produces a verdict for every input. The predictor runs under a
// time budget behind a circuit breaker and any failure falls back to the
// keyword detector.
type Gateway struct {
	predictor       Predictor
	fallback        *moderation.FallbackDetector
	thresholds      moderation.Thresholds
	timeout         time.Duration
	breaker         *gobreaker.CircuitBreaker
	training        TrainingSubmitter
	trainingTimeout time.Duration
	source          domain.Source
	logger          *zap.Logger
	wg              sync.WaitGroup
}

// NewGateway builds a gateway. A nil predictor means every verdict comes
// from the fallback detector.
func NewGateway(predictor Predictor, fallback *moderation.FallbackDetector, logger *zap.Logger, opts Options) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback == nil {
		fallback = moderation.NewFallbackDetector(moderation.DefaultFallbackConfig())
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TrainingTimeout <= 0 {
		opts.TrainingTimeout = defaultTrainingTimeout
	}
	if opts.Thresholds == (moderation.Thresholds{}) {
		opts.Thresholds = moderation.DefaultThresholds()
	}
	if opts.Source == "" {
		opts.Source = domain.SourceML
	}
	if opts.Breaker.ConsecutiveFailures == 0 {
		opts.Breaker.ConsecutiveFailures = 5
	}
	if opts.Breaker.OpenTimeout <= 0 {
		opts.Breaker.OpenTimeout = 30 * time.Second
	}
	if opts.Breaker.HalfOpenRequests == 0 {
		opts.Breaker.HalfOpenRequests = 3
	}

	g := &Gateway{
		predictor:       predictor,
		fallback:        fallback,
		thresholds:      opts.Thresholds,
		timeout:         opts.Timeout,
		training:        opts.Training,
		trainingTimeout: opts.TrainingTimeout,
		source:          opts.Source,
		logger:          logger,
	}

	name := "classifier-" + string(opts.Source)
	failures := opts.Breaker.ConsecutiveFailures
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.Breaker.HalfOpenRequests,
		Interval:    60 * time.Second,
		Timeout:     opts.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("classifier breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	breakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return g
}

func (g *Gateway) Classify(ctx context.Context, text string) domain.Verdict {
	return g.ClassifyForUser(ctx, text, "")
}

// ClassifyForUser never fails. userID is only attached to training data.
func (g *Gateway) ClassifyForUser(ctx context.Context, text, userID string) domain.Verdict {
	start := time.Now()
	verdict, reason := g.remote(ctx, text)
	if reason != "" {
		fallbackCount.WithLabelValues(reason).Inc()
		verdict = g.fallback.Classify(text)
	}
	classifyDuration.WithLabelValues(string(verdict.Source)).Observe(time.Since(start).Seconds())
	classifyCount.WithLabelValues(string(verdict.Source)).Inc()

	g.submit(TrainingRecord{Text: text, UserID: userID, Prediction: verdict})
	return verdict
}

// remote returns a non-empty reason when the fallback must be used.
func (g *Gateway) remote(ctx context.Context, text string) (domain.Verdict, string) {
	if g.predictor == nil {
		return domain.Verdict{}, "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.breaker.Execute(func() (interface{}, error) {
		p, err := g.predictor.Predict(ctx, text)
		if err != nil {
			return nil, err
		}
		return g.normalize(p)
	})
	if err != nil {
		reason := failureReason(err)
		g.logger.Warn("classifier fallback", zap.String("reason", reason), zap.Error(err))
		return domain.Verdict{}, reason
	}
	return out.(domain.Verdict), ""
}

func failureReason(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errMalformed):
		return "malformed"
	case errors.As(err, &statusErr):
		return "status"
	default:
		return "error"
	}
}

// normalize turns an untrusted prediction into a verdict. Severity and the
// immediate-action flag are always derived locally.
func (g *Gateway) normalize(p Prediction) (domain.Verdict, error) {
	if p.IsHateSpeech == nil && p.Confidence == nil {
		return domain.Verdict{}, errMalformed
	}

	var confidence float64
	if p.Confidence != nil {
		confidence = clamp01(*p.Confidence)
	}
	var isHate bool
	if p.IsHateSpeech != nil {
		isHate = *p.IsHateSpeech
	} else {
		isHate = g.thresholds.IsHate(confidence)
	}
	if p.Confidence == nil && isHate {
		confidence = 1
	}

	v := g.thresholds.Finalize(domain.Verdict{
		IsHateSpeech: isHate,
		Confidence:   confidence,
		Categories:   p.Categories,
		Source:       g.source,
	})
	if p.Severity != "" {
		if upstream, ok := domain.ParseSeverity(p.Severity); !ok || upstream != v.Severity {
			g.logger.Debug("upstream severity ignored",
				zap.String("upstream", p.Severity),
				zap.String("local", string(v.Severity)),
			)
		}
	}
	return v, nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// RecordHumanLabel sends an admin decision on stored content to the learning
// pipeline.
func (g *Gateway) RecordHumanLabel(item domain.ContentItem, isHateSpeech bool) {
	label := LabelNotHateSpeech
	if isHateSpeech {
		label = LabelHateSpeech
	}
	g.submit(TrainingRecord{
		Text:       item.Body,
		UserID:     item.AuthorID,
		Prediction: item.Verdict(),
		HumanLabel: label,
	})
}

// submit is fire-and-forget. Nothing is sent while the breaker is open.
func (g *Gateway) submit(record TrainingRecord) {
	if g.training == nil || g.breaker.State() == gobreaker.StateOpen {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.trainingTimeout)
		defer cancel()
		if err := g.training.Submit(ctx, record); err != nil {
			trainingSubmitCount.WithLabelValues("error").Inc()
			g.logger.Warn("training data submission failed", zap.Error(err))
			return
		}
		trainingSubmitCount.WithLabelValues("ok").Inc()
	}()
}

func (g *Gateway) BreakerState() string {
	return g.breaker.State().String()
}

// Close waits for in-flight training submissions or until ctx is done.
func (g *Gateway) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
