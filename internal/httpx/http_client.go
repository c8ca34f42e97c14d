package httpx

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const defaultExternalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ExternalHTTPClient is the shared client for outbound calls that carry their
// own per-request deadline.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}

func ConfigureExternalHTTPClient(timeoutSeconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}

// leveledZap adapts zap to retryablehttp. Intermediate errors are logged as
// warnings since the request is retried.
type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// NewRetryingClient returns a stdlib client that retries connection errors,
// 5xx (except 501) and 429 responses up to retries times.
func NewRetryingClient(retries int, timeout time.Duration, logger *zap.Logger) *http.Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{logger.Sugar()})
	client := retryClient.StandardClient()
	client.Timeout = timeout
	return client
}
