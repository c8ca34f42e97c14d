package support

import (
	"regexp"

	"safefeed/internal/domain"
)

type route struct {
	category domain.IntentCategory
	patterns []*regexp.Regexp
}

// Router maps a support message to an intent category. Routes are checked
// in order and the first match wins, so the crisis categories come first.
type Router struct {
	routes []route
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

const partners = `(boyfriend|girlfriend|partner|spouse|husband|wife|\bex\b)`
const partnerViolence = `(hit|hits|hitting|beat|beats|beating|choke|choked|chokes|slap|slapped|slaps|punch|punched|kick|kicked|shove|shoved|push|pushed|threaten|threatens|threatened|abusive|abuses|abused)\b`

func NewRouter() *Router {
	return &Router{routes: []route{
		{domain.IntentSuicide, compile(
			`kill.*self`, `suicid`, `want.*die`, `wanna.*die`, `end.*life`, `don.?t.*want.*live`,
			`better.*off.*dead`, `no.*reason.*live`, `everyone.*better.*without.*me`, `feel.*like.*dying`,
		)},
		{domain.IntentSelfHarm, compile(
			`hurt.*self`, `cut.*self`, `cutting`, `self.*harm`, `want.*pain`, `deserve.*pain`,
		)},
		{domain.IntentDomesticAbuse, compile(
			partners+`.*\b`+partnerViolence,
			`domestic.*violence`, `physical.*abuse`, `emotional.*abuse`,
		)},
		{domain.IntentOnlineHarassment, compile(
			`harass`, `cyber.*bull`, `online.*bull`, `stalk.*online`,
			`someone.*following`, `threat.*online`, `hate.*messages`, `doxx`,
		)},
		{domain.IntentHateSpeech, compile(
			`hate.*speech`, `called.*names`, `racial.*slur`, `\bslurs?\b`, `discriminat`,
			`targeted.*because`, `hate.*content`, `offensive.*comments`,
		)},
		{domain.IntentSad, compile(
			`feel.*sad`, `\bsad\b`, `depress`, `\bdown\b`, `unhappy`, `miserable`,
			`hopeless`, `worthless`, `\bempty\b`,
		)},
		{domain.IntentLonely, compile(
			`lonely`, `\balone\b`, `no.*friends`, `isolated`, `no.*one.*cares`,
			`no.*support`, `by.*myself`,
		)},
		{domain.IntentAnxious, compile(
			`anxious`, `anxiety`, `worried`, `nervous`, `panic`, `stress`, `overwhelm`,
			`scared`, `\bfear`,
		)},
	}}
}

// Route never fails; unmatched messages are IntentDefault.
func (r *Router) Route(message string) domain.IntentCategory {
	for _, rt := range r.routes {
		for _, p := range rt.patterns {
			if p.MatchString(message) {
				return rt.category
			}
		}
	}
	return domain.IntentDefault
}

// Categories lists the routed categories in priority order.
func (r *Router) Categories() []domain.IntentCategory {
	out := make([]domain.IntentCategory, 0, len(r.routes)+1)
	for _, rt := range r.routes {
		out = append(out, rt.category)
	}
	return append(out, domain.IntentDefault)
}
