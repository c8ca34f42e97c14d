package moderation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"safefeed/internal/domain"
)

// Lexicon maps a category label to the keywords and phrases that detect it.
type Lexicon map[string][]string

func DefaultLexicon() Lexicon {
	return Lexicon{
		domain.CategoryThreat:     {"kill", "die", "hurt", "harm", "destroy", "attack", "murder"},
		domain.CategoryHateSpeech: {"hate", "despise", "disgusting", "awful", "terrible", "inferior"},
		domain.CategoryHarassment: {"stalk", "follow", "doxx", "expose", "shut up"},
		domain.CategoryOffensive:  {"stupid", "idiot", "dumb", "moron", "loser", "pathetic"},
		domain.CategoryProfanity:  {"damn", "hell", "crap", "fuck", "shit", "bitch"},
		domain.CategorySpam:       {"buy now", "click here", "free money", "get rich"},
	}
}

func DefaultWeights() map[string]float64 {
	return map[string]float64{
		domain.CategoryThreat:     3,
		domain.CategoryHateSpeech: 2,
	}
}

type lexiconFile struct {
	Categories map[string][]string `yaml:"categories"`
	Weights    map[string]float64  `yaml:"weights"`
}

// LoadLexicon reads a YAML lexicon. Keywords are lowercased and blanks dropped.
// Weights in the file are returned separately and may be empty.
func LoadLexicon(path string) (Lexicon, map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read lexicon: %w", err)
	}
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse lexicon yaml: %w", err)
	}
	lex := make(Lexicon, len(f.Categories))
	for category, words := range f.Categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			continue
		}
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				lex[category] = append(lex[category], w)
			}
		}
	}
	if len(lex) == 0 {
		return nil, nil, fmt.Errorf("lexicon %s has no keywords", path)
	}
	return lex, f.Weights, nil
}
