package classifier

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrNoModelService = errors.New("model service not configured")

// Status is what the service reports about its classifier backend.
type Status struct {
	Status    string         `json:"status"`
	Breaker   string         `json:"breaker"`
	MLStats   map[string]any `json:"mlStats,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Monitor wraps the operational endpoints of the model service. client may
// be nil when the deployment has no model service.
type Monitor struct {
	client  *MLClient
	gateway *Gateway
	logger  *zap.Logger
	up      atomic.Bool
	now     func() time.Time
}

func NewMonitor(client *MLClient, gateway *Gateway, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{client: client, gateway: gateway, logger: logger, now: time.Now}
}

func (m *Monitor) breaker() string {
	if m.gateway == nil {
		return "none"
	}
	return m.gateway.BreakerState()
}

// Status never fails; an unreachable service is reported as fallback.
func (m *Monitor) Status(ctx context.Context) Status {
	st := Status{Status: "fallback", Breaker: m.breaker(), Timestamp: m.now().UTC()}
	if m.client == nil {
		st.Error = ErrNoModelService.Error()
		return st
	}
	stats, err := m.client.Stats(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Status = "connected"
	st.MLStats = stats.Raw
	return st
}

// Stats returns the raw model statistics document.
func (m *Monitor) Stats(ctx context.Context) (map[string]any, error) {
	if m.client == nil {
		return nil, ErrNoModelService
	}
	stats, err := m.client.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Raw, nil
}

// Probe checks /health and logs transitions between up and down.
func (m *Monitor) Probe(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	_, err := m.client.Health(ctx)
	up := err == nil
	if up {
		serviceUp.Set(1)
	} else {
		serviceUp.Set(0)
	}
	if was := m.up.Swap(up); was != up {
		if up {
			m.logger.Info("model service reachable")
		} else {
			m.logger.Warn("model service unreachable", zap.Error(err))
		}
	}
	return err
}

// RetrainIfReady starts a retrain once enough labeled samples exist. It
// reports whether a retrain was requested.
func (m *Monitor) RetrainIfReady(ctx context.Context, minLabeled int) (bool, error) {
	if m.client == nil {
		return false, ErrNoModelService
	}
	stats, err := m.client.Stats(ctx)
	if err != nil {
		return false, err
	}
	labeled := stats.TrainingData.LabeledSamples
	if labeled < minLabeled {
		m.logger.Debug("retrain skipped", zap.Int("labeled", labeled), zap.Int("min", minLabeled))
		return false, nil
	}
	if _, err := m.client.Retrain(ctx); err != nil {
		return false, err
	}
	m.logger.Info("model retrain requested", zap.Int("labeled", labeled))
	return true, nil
}

func (m *Monitor) ReportAbuse(ctx context.Context, report AbuseReport) (AbuseReceipt, error) {
	if m.client == nil {
		return AbuseReceipt{}, ErrNoModelService
	}
	return m.client.ReportAbuse(ctx, report)
}
