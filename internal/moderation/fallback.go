package moderation

import (
	"math"
	"sort"
	"strings"

	"safefeed/internal/domain"
)

// FallbackConfig tunes the offline keyword detector.
type FallbackConfig struct {
	Lexicon    Lexicon
	Weights    map[string]float64
	PerPoint   float64
	Cap        float64
	Thresholds Thresholds
}

func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		Lexicon:    DefaultLexicon(),
		Weights:    DefaultWeights(),
		PerPoint:   0.15,
		Cap:        0.95,
		Thresholds: DefaultThresholds(),
	}
}

// FallbackDetector is a deterministic keyword classifier that needs no
// network. It is the safety net behind the remote classifier.
type FallbackDetector struct {
	categories []string
	lexicon    Lexicon
	weights    map[string]float64
	perPoint   float64
	cap        float64
	thresholds Thresholds
}

func NewFallbackDetector(cfg FallbackConfig) *FallbackDetector {
	if len(cfg.Lexicon) == 0 {
		cfg.Lexicon = DefaultLexicon()
	}
	if cfg.PerPoint <= 0 {
		cfg.PerPoint = 0.15
	}
	if cfg.Cap <= 0 || cfg.Cap > 1 {
		cfg.Cap = 0.95
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	lexicon := make(Lexicon, len(cfg.Lexicon))
	categories := make([]string, 0, len(cfg.Lexicon))
	for category, words := range cfg.Lexicon {
		normalized := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				normalized = append(normalized, w)
			}
		}
		lexicon[category] = normalized
		categories = append(categories, category)
	}
	sort.Strings(categories)
	weights := make(map[string]float64, len(cfg.Weights))
	for k, v := range cfg.Weights {
		weights[k] = v
	}
	return &FallbackDetector{
		categories: categories,
		lexicon:    lexicon,
		weights:    weights,
		perPoint:   cfg.PerPoint,
		cap:        cfg.Cap,
		thresholds: cfg.Thresholds,
	}
}

func (d *FallbackDetector) weight(category string) float64 {
	if w, ok := d.weights[category]; ok && w > 0 {
		return w
	}
	return 1
}

// Score returns the weighted raw score and the detected categories. Each
// keyword counts at most once, however often it appears.
func (d *FallbackDetector) Score(text string) (float64, []string) {
	lower := strings.ToLower(text)
	var raw float64
	var detected []string
	for _, category := range d.categories {
		matches := 0
		for _, keyword := range d.lexicon[category] {
			if strings.Contains(lower, keyword) {
				matches++
			}
		}
		if matches > 0 {
			detected = append(detected, category)
			raw += float64(matches) * d.weight(category)
		}
	}
	return raw, detected
}

func (d *FallbackDetector) Classify(text string) domain.Verdict {
	raw, categories := d.Score(text)
	confidence := math.Min(raw*d.perPoint, d.cap)
	v := domain.Verdict{
		IsHateSpeech: d.thresholds.IsHate(confidence),
		Confidence:   confidence,
		Categories:   categories,
		Source:       domain.SourceFallback,
	}
	return d.thresholds.Finalize(v)
}
