package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"safefeed/internal/domain"
)

const (
	LabelHateSpeech    = "hate_speech"
	LabelNotHateSpeech = "not_hate_speech"
)

// TrainingRecord is one example sent to the learning pipeline.
type TrainingRecord struct {
	Text       string         `json:"text"`
	Timestamp  string         `json:"timestamp"`
	UserID     string         `json:"userId,omitempty"`
	Prediction domain.Verdict `json:"prediction"`
	HumanLabel string         `json:"humanLabel,omitempty"`
}

type TrainingSubmitter interface {
	Submit(ctx context.Context, record TrainingRecord) error
}

// TrainingSink posts records to /store-training-data. The client is expected
// to retry on its own.
type TrainingSink struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewTrainingSink(baseURL string, client *http.Client) *TrainingSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &TrainingSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *TrainingSink) Submit(ctx context.Context, record TrainingRecord) error {
	if record.Timestamp == "" {
		record.Timestamp = s.now().Format(time.RFC3339)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+pathStoreTraining, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("store training data: status %d", resp.StatusCode)
	}
	return nil
}
