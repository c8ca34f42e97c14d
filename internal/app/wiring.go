package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"safefeed/internal/config"
	"safefeed/internal/httpx"
	"safefeed/internal/integrations/classifier"
	"safefeed/internal/integrations/counsel"
	"safefeed/internal/integrations/llm"
	slackbot "safefeed/internal/integrations/slack"
	"safefeed/internal/moderation"
	"safefeed/internal/scheduler"
	"safefeed/internal/storage/sqlite"
	"safefeed/internal/support"
)

const (
	providerML        = "ml"
	providerAnthropic = "anthropic"
	providerFallback  = "fallback"

	trainingClientTimeout = 10 * time.Second
)

// components is everything the serve command runs.
type components struct {
	logger     *zap.Logger
	store      *sqlite.Store
	gateway    *classifier.Gateway
	mlClient   *classifier.MLClient
	monitor    *classifier.Monitor
	notifier   *slackbot.Notifier
	moderation *moderation.Service
	responder  *support.Responder
	redis      *support.RedisMemory
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*components, error) {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database initialized", zap.String("path", cfg.DBPath))
	c := &components{logger: logger, store: store}

	c.gateway, c.mlClient, err = newGateway(cfg, cfg.ClassifierProvider, !cfg.TrainingDataDisabled, logger)
	if err != nil {
		c.close(ctx) //nolint:errcheck
		return nil, err
	}
	c.monitor = classifier.NewMonitor(c.mlClient, c.gateway, logger)

	if cfg.SlackConfigured() {
		c.notifier = slackbot.New(cfg.SlackBotToken, cfg.SlackAlertChannelID, cfg.SlackDigestChannelID, logger)
	}

	modOpts := moderation.Options{
		MaxBodyLength: cfg.MaxBodyLength,
		Labeler:       c.gateway,
	}
	if c.notifier != nil {
		modOpts.Escalator = c.notifier
	}
	c.moderation = moderation.NewService(store, c.gateway, logger, modOpts)

	supportOpts := support.Options{
		CounselTimeout: cfg.CounselTimeout(),
		Seed:           cfg.RandomSeed,
	}
	switch cfg.CounselProvider {
	case "http":
		supportOpts.Counselor = counsel.NewHTTPCounselor(cfg.CounselURL, httpx.ExternalHTTPClient())
	case providerAnthropic:
		supportOpts.Counselor = counsel.NewLLMCounselor(llm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, logger))
	}
	switch cfg.MemoryBackend {
	case "redis":
		c.redis, err = support.NewRedisMemory(ctx, cfg.RedisURL, cfg.MemoryTTL())
		if err != nil {
			c.close(ctx) //nolint:errcheck
			return nil, fmt.Errorf("connect redis memory: %w", err)
		}
		supportOpts.Memory = c.redis
	default:
		supportOpts.Memory = support.NewLocalMemory(cfg.MemoryTTL())
	}
	if c.notifier != nil {
		supportOpts.Escalator = c.notifier
	}
	if cfg.LogConversations {
		supportOpts.Log = store
	}
	c.responder = support.NewResponder(support.NewRouter(), logger, supportOpts)
	return c, nil
}

// scheduler registers the periodic jobs. Jobs that need the model service
// or Slack are left out when those are not configured.
func (c *components) scheduler(cfg config.Config) (*scheduler.Scheduler, error) {
	jobs := scheduler.Jobs{Reports: c.moderation}
	if c.mlClient != nil {
		jobs.Prober = c.monitor
		jobs.Retrainer = c.monitor
	}
	if c.notifier != nil {
		jobs.Digest = c.notifier
	}
	return scheduler.New(scheduler.Config{
		HealthSchedule:    cfg.HealthProbeSchedule,
		RetrainSchedule:   cfg.RetrainSchedule,
		DigestSchedule:    cfg.ReportDigestSchedule,
		RetrainMinLabeled: cfg.RetrainMinLabeled,
		Location:          cfg.Location,
	}, jobs, c.logger)
}

// close drains background work and releases resources in dependency order.
func (c *components) close(ctx context.Context) error {
	var errs []error
	if c.moderation != nil {
		c.moderation.Wait()
	}
	if c.responder != nil {
		c.responder.Wait()
	}
	if c.gateway != nil {
		if err := c.gateway.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain training submissions: %w", err))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func newFallbackDetector(cfg config.Config) (*moderation.FallbackDetector, error) {
	fc := moderation.DefaultFallbackConfig()
	fc.Thresholds = thresholds(cfg)
	fc.PerPoint = cfg.ConfidencePerPoint
	fc.Cap = cfg.ConfidenceCap
	if cfg.LexiconPath != "" {
		lexicon, weights, err := moderation.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		fc.Lexicon = lexicon
		for category, w := range weights {
			fc.Weights[category] = w
		}
	}
	for category, w := range cfg.CategoryWeights {
		fc.Weights[category] = w
	}
	return moderation.NewFallbackDetector(fc), nil
}

func thresholds(cfg config.Config) moderation.Thresholds {
	return moderation.Thresholds{
		Low:      cfg.LowThreshold,
		Hate:     cfg.HateThreshold,
		High:     cfg.HighThreshold,
		Critical: cfg.CriticalThreshold,
	}
}

// newGateway builds the classifier gateway for provider. The model service
// client is returned only for the ml provider.
func newGateway(cfg config.Config, provider string, withTraining bool, logger *zap.Logger) (*classifier.Gateway, *classifier.MLClient, error) {
	fallback, err := newFallbackDetector(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := classifier.Options{
		Timeout:    cfg.MLTimeout(),
		Thresholds: thresholds(cfg),
		Breaker: classifier.BreakerSettings{
			ConsecutiveFailures: uint32(cfg.BreakerFailures),
			OpenTimeout:         time.Duration(cfg.BreakerOpenSeconds) * time.Second,
			HalfOpenRequests:    uint32(cfg.BreakerHalfOpenProbes),
		},
		Source: classifier.SourceFor(provider),
	}

	var (
		predictor classifier.Predictor
		mlClient  *classifier.MLClient
	)
	switch provider {
	case providerML:
		// Predictions run under the gateway deadline, so no retries here.
		mlClient = classifier.NewMLClient(cfg.MLServiceURL, httpx.ExternalHTTPClient())
		predictor = mlClient
		if withTraining {
			retrying := httpx.NewRetryingClient(cfg.MLRetryAttempts, trainingClientTimeout, logger)
			opts.Training = classifier.NewTrainingSink(cfg.MLServiceURL, retrying)
		}
	case providerAnthropic:
		predictor = classifier.NewLLMPredictor(llm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, logger))
	case providerFallback:
	default:
		return nil, nil, fmt.Errorf("unknown classifier provider '%s'", provider)
	}
	return classifier.NewGateway(predictor, fallback, logger, opts), mlClient, nil
}

// newTemplateResponder answers from templates only, for the route command.
func newTemplateResponder(cfg config.Config, logger *zap.Logger) *support.Responder {
	return support.NewResponder(support.NewRouter(), logger, support.Options{Seed: cfg.RandomSeed})
}
