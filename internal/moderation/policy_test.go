package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safefeed/internal/domain"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		verdict domain.Verdict
		want    Decision
	}{
		{
			name:    "hate speech is flagged",
			verdict: domain.Verdict{IsHateSpeech: true, Confidence: 0.7},
			want:    Decision{Status: domain.StatusFlagged, AutoReport: true},
		},
		{
			name:    "clean text is approved",
			verdict: domain.Verdict{Confidence: 0.1},
			want:    Decision{Status: domain.StatusApproved},
		},
		{
			name:    "high confidence without the gate is approved",
			verdict: domain.Verdict{Confidence: 0.9, Categories: []string{"spam"}},
			want:    Decision{Status: domain.StatusApproved},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Decide(tt.verdict)
			second := Decide(tt.verdict)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second)
			assert.NotEqual(t, domain.StatusPending, first.Status)
		})
	}
}

func TestAutoReportFor(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, item := range []domain.ContentItem{
		{ID: 7, Kind: domain.KindPost, AuthorID: "u1", Body: "post body"},
		{ID: 9, Kind: domain.KindComment, PostID: 7, AuthorID: "u2", Body: "comment body"},
	} {
		report, err := AutoReportFor(item, now)
		require.NoError(t, err)
		assert.Equal(t, item.AuthorID, report.ReporterID)
		assert.Equal(t, item.AuthorID, report.ReportedUserID)
		assert.Equal(t, domain.AutoReportReason, report.Reason)
		assert.Equal(t, domain.ReportPending, report.Status)
		assert.Equal(t, item.Body, report.ContentSnapshot)
		assert.True(t, report.IsAutomatic())

		postID, commentID := domain.TargetColumns(report.Target)
		assert.True(t, (postID == nil) != (commentID == nil), "exactly one target column must be set")
		assert.Equal(t, item.Kind, report.Target.Kind())
		assert.Equal(t, item.ID, report.Target.ID())
	}

	_, err := AutoReportFor(domain.ContentItem{Kind: domain.KindPost, AuthorID: "u1"}, now)
	assert.Error(t, err, "unsaved items cannot be reported")
}
