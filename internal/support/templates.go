package support

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"safefeed/internal/domain"
)

const (
	HotlineSuicide  = "988"
	HotlineCrisis   = "741741"
	HotlineDomestic = "1-800-799-7233"
)

// Hotline is the contact string every reply in a crisis category must
// contain. It is empty for the other categories.
func Hotline(category domain.IntentCategory) string {
	switch category {
	case domain.IntentSuicide:
		return HotlineSuicide
	case domain.IntentSelfHarm:
		return HotlineCrisis
	case domain.IntentDomesticAbuse:
		return HotlineDomestic
	}
	return ""
}

// hotlineNotice is appended to backend replies that left the hotline out.
func hotlineNotice(category domain.IntentCategory) string {
	switch category {
	case domain.IntentSuicide:
		return "If you are in danger, please call or text 988 (Suicide & Crisis Lifeline) right now."
	case domain.IntentSelfHarm:
		return "You can text HOME to 741741 (Crisis Text Line) or call 988 at any time."
	case domain.IntentDomesticAbuse:
		return "The National Domestic Violence Hotline is available 24/7 at 1-800-799-7233."
	}
	return ""
}

var templates = map[domain.IntentCategory][]string{
	domain.IntentSuicide: {
		"I'm so sorry you're feeling this way, and I want you to know you're not alone in this pain. Please call or text 988 right now. The Suicide & Crisis Lifeline has counselors available 24/7 who can help. Your life matters.",
		"I can hear how much pain you're in, and your feelings are valid. There is help available right now: please call 988 to reach the Suicide & Crisis Lifeline. You don't have to face this alone.",
	},
	domain.IntentSelfHarm: {
		"I'm so sorry you're hurting this much. You deserve support and care. Please text HOME to 741741 to reach the Crisis Text Line, or call 988 for immediate support.",
		"I understand you're in a lot of pain right now, and hurting yourself isn't something you have to carry alone. Please reach out: text HOME to 741741 or call 988 to talk with a trained counselor.",
	},
	domain.IntentDomesticAbuse: {
		"I'm so sorry you're going through this. It is not your fault, and your safety comes first. Please call the National Domestic Violence Hotline at 1-800-799-7233 (1-800-799-SAFE). If you are in immediate danger, call 911.",
		"No one deserves to be treated this way. The National Domestic Violence Hotline at 1-800-799-7233 can help you make a safety plan, 24/7. Documenting incidents and reaching out to someone you trust can also help.",
	},
	domain.IntentOnlineHarassment: {
		"I'm so sorry you're being harassed online. That is not your fault. Some steps that can help: take screenshots of everything, block the person, and report them to the moderators here.",
		"Online harassment can be really scary. You don't deserve this. You can block and report the person, keep a record of the messages, and consider talking to someone you trust about it.",
	},
	domain.IntentHateSpeech: {
		"I'm so sorry you had to see that hateful content. You don't deserve to be targeted like that, and your identity and community are valid. Reporting the content helps us get it removed.",
		"That kind of hate speech is completely unacceptable. Your worth is not defined by someone else's hate. Please report the content so the moderators can review it, and lean on people who support you.",
	},
	domain.IntentSad: {
		"I'm here to listen, and it's brave of you to reach out. It's okay to not be okay. Sometimes talking things through helps a little.",
		"I'm sorry you're feeling down. Your feelings are valid, and I'm here to listen if you want to share what's been going on.",
	},
	domain.IntentLonely: {
		"Loneliness is a really heavy feeling to carry, and I'm glad you reached out. You're not alone right now. I'm here to listen.",
		"I'm sorry you're feeling lonely. Your feelings matter. Sometimes even a small conversation can help ease that feeling.",
	},
	domain.IntentAnxious: {
		"Anxiety can be really overwhelming, and it's okay to feel this way. Sometimes a few slow, deep breaths can help. I'm here to listen.",
		"I can hear how anxious you're feeling. Talking about what's worrying you can sometimes make it feel a bit lighter. I'm here for you.",
	},
	domain.IntentDefault: {
		"I'm here to listen and support you. You're not alone, and it's brave of you to reach out.",
		"I'm here for you and I care about what you're going through. Sometimes just talking things through can help.",
		"I'm so glad you reached out. You don't have to go through this alone.",
	},
}

var followUps = []string{
	"How are you feeling right now?",
	"What would be most helpful for you right now?",
	"Would you like to talk more about what's going on?",
	"Is there anything specific you'd like to discuss?",
	"How can I best support you today?",
}

// picker chooses templates. The seed makes replies reproducible in tests.
type picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newPicker(seed int64) *picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &picker{rng: rand.New(rand.NewSource(seed))}
}

func (p *picker) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return options[p.rng.Intn(len(options))]
}

// templateReply builds a reply from the template bank for the category.
func (p *picker) templateReply(category domain.IntentCategory) string {
	bank, ok := templates[category]
	if !ok {
		bank = templates[domain.IntentDefault]
	}
	return p.pick(bank) + " " + p.pick(followUps)
}

// ensureHotline appends the category's hotline notice when text lacks it.
func ensureHotline(category domain.IntentCategory, text string) string {
	hotline := Hotline(category)
	if hotline == "" || strings.Contains(text, hotline) {
		return text
	}
	return strings.TrimSpace(text) + "\n\n" + hotlineNotice(category)
}
