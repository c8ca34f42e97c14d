package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safefeed/internal/config"
	"safefeed/internal/domain"
	"safefeed/internal/support"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CLASSIFIER_PROVIDER", "fallback")
}

func TestClassifyCommandOffline(t *testing.T) {
	isolateEnv(t)
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"safefeed", "classify", "--offline", "I", "will", "kill", "you"})
	require.NoError(t, err)

	var v domain.Verdict
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.True(t, v.IsHateSpeech)
	assert.InDelta(t, 0.45, v.Confidence, 1e-9)
	assert.Equal(t, domain.SeverityMedium, v.Severity)
	assert.True(t, v.RequiresImmediateAction)
	assert.Equal(t, domain.SourceFallback, v.Source)
}

func TestClassifyCommandNeedsText(t *testing.T) {
	isolateEnv(t)
	err := newApp(&bytes.Buffer{}).Run([]string{"safefeed", "classify"})
	require.Error(t, err)
}

func TestRouteCommand(t *testing.T) {
	isolateEnv(t)
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"safefeed", "route", "I want to end my life"})
	require.NoError(t, err)

	var reply support.Reply
	require.NoError(t, json.Unmarshal(out.Bytes(), &reply))
	assert.Equal(t, domain.IntentSuicide, reply.Category)
	assert.True(t, reply.Crisis)
	assert.Contains(t, reply.Text, support.Hotline(domain.IntentSuicide))
}

func TestConfigFlagSetsPath(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classifier_provider: \"bogus\"\n"), 0o644))
	t.Setenv("CLASSIFIER_PROVIDER", "")

	err := newApp(&bytes.Buffer{}).Run([]string{"safefeed", "--config", path, "classify", "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier_provider")
}

func TestFallbackDetectorUsesLexiconAndWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "categories:\n  spam:\n    - \"limited offer\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := testConfig()
	cfg.LexiconPath = path
	cfg.CategoryWeights = map[string]float64{"spam": 3}
	d, err := newFallbackDetector(cfg)
	require.NoError(t, err)

	v := d.Classify("limited offer today")
	assert.Equal(t, []string{"spam"}, v.Categories)
	assert.InDelta(t, 0.45, v.Confidence, 1e-9)
}

func TestNewGatewayRejectsUnknownProvider(t *testing.T) {
	_, _, err := newGateway(testConfig(), "openai", false, nil)
	require.Error(t, err)
}

func TestNewGatewayOnlyReturnsModelClientForML(t *testing.T) {
	cfg := testConfig()
	gw, client, err := newGateway(cfg, providerML, false, nil)
	require.NoError(t, err)
	assert.NotNil(t, gw)
	assert.NotNil(t, client)

	gw, client, err = newGateway(cfg, providerFallback, false, nil)
	require.NoError(t, err)
	assert.NotNil(t, gw)
	assert.Nil(t, client)
}

func testConfig() config.Config {
	return config.Config{
		MLServiceURL:          "http://127.0.0.1:1",
		MLTimeoutMillis:       200,
		BreakerFailures:       2,
		BreakerOpenSeconds:    30,
		BreakerHalfOpenProbes: 1,
		HateThreshold:         0.4,
		LowThreshold:          0.2,
		HighThreshold:         0.6,
		CriticalThreshold:     0.8,
		ConfidencePerPoint:    0.15,
		ConfidenceCap:         0.95,
	}
}
