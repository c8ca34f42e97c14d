package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	pathPredict        = "/predict-hate-speech"
	pathReportAbuse    = "/report-abuse"
	pathStoreTraining  = "/store-training-data"
	pathRetrain        = "/retrain-model"
	pathStats          = "/model-stats"
	pathPendingReports = "/get-pending-reports"
	pathHealth         = "/health"

	maxErrorBody = 512
)

// Prediction is the classifier wire format. Every field may be missing.
type Prediction struct {
	IsHateSpeech *bool    `json:"is_hate_speech"`
	Confidence   *float64 `json:"confidence"`
	Categories   []string `json:"categories"`
	Severity     string   `json:"severity"`
}

// Predictor is a remote source of predictions.
type Predictor interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ml service %s responded with status %d: %s", e.Path, e.Code, e.Body)
}

// MLClient talks to the hate-speech model service.
type MLClient struct {
	baseURL string
	client  *http.Client
}

func NewMLClient(baseURL string, client *http.Client) *MLClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &MLClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *MLClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *MLClient) Predict(ctx context.Context, text string) (Prediction, error) {
	var p Prediction
	err := c.do(ctx, http.MethodPost, pathPredict, map[string]string{"text": text}, &p)
	return p, err
}

// AbuseReport is forwarded to the model service's abuse queue.
type AbuseReport struct {
	Text           string `json:"text" validate:"required"`
	UserID         string `json:"userId,omitempty"`
	ReportedUserID string `json:"reportedUserId,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

type AbuseReceipt struct {
	ReportID   json.RawMessage `json:"report_id"`
	Prediction json.RawMessage `json:"prediction"`
}

func (c *MLClient) ReportAbuse(ctx context.Context, report AbuseReport) (AbuseReceipt, error) {
	var receipt AbuseReceipt
	err := c.do(ctx, http.MethodPost, pathReportAbuse, report, &receipt)
	return receipt, err
}

// Health returns the raw health document of the model service.
func (c *MLClient) Health(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	err := c.do(ctx, http.MethodGet, pathHealth, nil, &out)
	return out, err
}

// ModelStats is the subset of /model-stats used for retrain decisions; the
// full document is kept in Raw.
type ModelStats struct {
	TrainingData struct {
		LabeledSamples int `json:"labeled_samples"`
	} `json:"training_data"`
	ModelInfo struct {
		Accuracy *float64 `json:"accuracy"`
	} `json:"model_info"`
	Raw map[string]any `json:"-"`
}

func (c *MLClient) Stats(ctx context.Context) (ModelStats, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, pathStats, nil, &raw); err != nil {
		return ModelStats{}, err
	}
	var stats ModelStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return ModelStats{}, fmt.Errorf("decode %s response: %w", pathStats, err)
	}
	if err := json.Unmarshal(raw, &stats.Raw); err != nil {
		return ModelStats{}, fmt.Errorf("decode %s response: %w", pathStats, err)
	}
	return stats, nil
}

func (c *MLClient) Retrain(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	err := c.do(ctx, http.MethodPost, pathRetrain, nil, &out)
	return out, err
}

func (c *MLClient) PendingReports(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, pathPendingReports, nil, &out)
	return out, err
}
