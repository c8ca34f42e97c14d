package support

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safefeed/internal/domain"
)

func TestCrisisTemplatesCarryHotline(t *testing.T) {
	for _, category := range []domain.IntentCategory{domain.IntentSuicide, domain.IntentSelfHarm, domain.IntentDomesticAbuse} {
		hotline := Hotline(category)
		require.NotEmpty(t, hotline, category)
		require.NotEmpty(t, templates[category], category)
		for _, tpl := range templates[category] {
			assert.Contains(t, tpl, hotline, "%s template missing hotline", category)
		}
		assert.Contains(t, hotlineNotice(category), hotline)
	}
}

func TestEveryCategoryHasTemplates(t *testing.T) {
	for _, category := range NewRouter().Categories() {
		assert.NotEmpty(t, templates[category], category)
	}
}

func TestSeededPickerIsDeterministic(t *testing.T) {
	a, b := newPicker(42), newPicker(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.templateReply(domain.IntentSad), b.templateReply(domain.IntentSad))
	}
}

func TestTemplateReplyEndsWithFollowUp(t *testing.T) {
	reply := newPicker(1).templateReply(domain.IntentLonely)
	found := false
	for _, f := range followUps {
		if strings.HasSuffix(reply, f) {
			found = true
		}
	}
	assert.True(t, found, reply)
}

func TestEnsureHotline(t *testing.T) {
	assert.Equal(t, "call 988 now", ensureHotline(domain.IntentSuicide, "call 988 now"))
	assert.Contains(t, ensureHotline(domain.IntentDomesticAbuse, "Stay safe."), HotlineDomestic)
	assert.Equal(t, "hi", ensureHotline(domain.IntentSad, "hi"))
}
