package domain

import "time"

type IntentCategory string

const (
	IntentSuicide          IntentCategory = "suicide"
	IntentSelfHarm         IntentCategory = "self_harm"
	IntentDomesticAbuse    IntentCategory = "domestic_abuse"
	IntentOnlineHarassment IntentCategory = "online_harassment"
	IntentHateSpeech       IntentCategory = "hate_speech"
	IntentSad              IntentCategory = "sad"
	IntentLonely           IntentCategory = "lonely"
	IntentAnxious          IntentCategory = "anxious"
	IntentDefault          IntentCategory = "default"
)

// IsCrisis is true for the categories whose replies must carry a hotline.
func (c IntentCategory) IsCrisis() bool {
	switch c {
	case IntentSuicide, IntentSelfHarm, IntentDomesticAbuse:
		return true
	}
	return false
}

// SuggestsReport is true for categories where the user is pointed at the
// report flow.
func (c IntentCategory) SuggestsReport() bool {
	return c == IntentOnlineHarassment || c == IntentHateSpeech
}

// Conversation is one support-chat exchange as logged to storage.
type Conversation struct {
	ID        int64
	UserID    string
	Message   string
	Response  string
	Category  IntentCategory
	Source    string
	CreatedAt time.Time
}
