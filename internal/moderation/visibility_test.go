package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safefeed/internal/domain"
)

func TestView(t *testing.T) {
	flagged := domain.ContentItem{
		ID: 1, Kind: domain.KindPost, AuthorID: "author", Body: "bad words",
		Status: domain.StatusFlagged, Flagged: true, Severity: domain.SeverityHigh,
		Categories: []string{"hate_speech"}, Confidence: 0.7, Source: domain.SourceML,
	}
	approved := domain.ContentItem{ID: 2, Kind: domain.KindPost, AuthorID: "author", Body: "fine words", Status: domain.StatusApproved}
	pending := domain.ContentItem{ID: 3, Kind: domain.KindPost, AuthorID: "author", Body: "unknown", Status: domain.StatusPending}

	assert.Equal(t, VisibleView{Body: "fine words"}, View(approved, Viewer{}))
	assert.Equal(t, WithheldView{}, View(flagged, Viewer{UserID: "stranger"}))
	assert.Equal(t, WithheldView{}, View(flagged, Viewer{}))
	assert.Equal(t, WithheldView{}, View(pending, Viewer{UserID: "stranger"}))
	assert.Equal(t, AppealableView{Body: "bad words", Severity: domain.SeverityHigh, Categories: []string{"hate_speech"}},
		View(flagged, Viewer{UserID: "author"}))

	adminView, ok := View(flagged, Viewer{UserID: "mod", IsAdmin: true}).(AdminView)
	require.True(t, ok)
	assert.Equal(t, "bad words", adminView.Body)
	assert.Equal(t, 0.7, adminView.Verdict.Confidence)
	assert.Equal(t, domain.SeverityHigh, adminView.Verdict.Severity)
	assert.Equal(t, []string{"hate_speech"}, adminView.Verdict.Categories)
}

func TestListReportsJoinsIdentityAndTargetState(t *testing.T) {
	store := newMemStore()
	store.profiles["alice"] = domain.Profile{UserID: "alice", Username: "alice", FullName: "Alice A"}
	store.profiles["bob"] = domain.Profile{UserID: "bob", Username: "bobby"}
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	live, err := svc.SubmitPost(ctx, "bob", "a calm post", "")
	require.NoError(t, err)
	gone, err := svc.SubmitPost(ctx, "bob", "soon gone", "")
	require.NoError(t, err)

	_, err = svc.ReportContent(ctx, UserReport{ReporterID: "alice", Kind: domain.KindPost, TargetID: live.Item.ID, Reason: "spam"})
	require.NoError(t, err)
	_, err = svc.ReportContent(ctx, UserReport{ReporterID: "alice", Kind: domain.KindPost, TargetID: gone.Item.ID, Reason: "spam"})
	require.NoError(t, err)
	require.NoError(t, store.DeleteContent(ctx, domain.KindPost, gone.Item.ID))

	listings := svc.ListReports(ctx, ReportFilter{})
	require.Len(t, listings, 2)
	byTarget := map[int64]ReportListing{}
	for _, l := range listings {
		byTarget[l.Report.Target.ID()] = l
		assert.Equal(t, "Alice A", l.Reporter.DisplayName())
		assert.Equal(t, "bobby", l.Reported.DisplayName())
		assert.False(t, l.Degraded)
	}

	liveState, ok := byTarget[live.Item.ID].Target.(LiveTarget)
	require.True(t, ok)
	assert.Equal(t, "a calm post", liveState.Item.Body)
	assert.Equal(t, RemovedTarget{Snapshot: "soon gone"}, byTarget[gone.Item.ID].Target)
}

func TestListReportsDegrades(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	post, err := svc.SubmitPost(ctx, "bob", "text", "")
	require.NoError(t, err)
	_, err = svc.ReportContent(ctx, UserReport{ReporterID: "alice", Kind: domain.KindPost, TargetID: post.Item.ID, Reason: "r"})
	require.NoError(t, err)

	store.failGetProfiles = errBoom
	store.failGetContent = errBoom
	listings := svc.ListReports(ctx, ReportFilter{})
	require.Len(t, listings, 1)
	assert.True(t, listings[0].Degraded)
	assert.Equal(t, "alice", listings[0].Reporter.DisplayName())
	assert.Equal(t, UnknownTarget{Snapshot: "text"}, listings[0].Target)

	store.failListReports = errBoom
	listings = svc.ListReports(ctx, ReportFilter{})
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestListFlagged(t *testing.T) {
	store := newMemStore()
	store.profiles["bob"] = domain.Profile{UserID: "bob", FullName: "Bob B"}
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	_, err := svc.SubmitPost(ctx, "bob", "I will kill you", "")
	require.NoError(t, err)
	_, err = svc.SubmitPost(ctx, "bob", "nice", "")
	require.NoError(t, err)

	flagged := svc.ListFlagged(ctx, domain.KindPost, 10)
	require.Len(t, flagged, 1)
	assert.Equal(t, "Bob B", flagged[0].Author.DisplayName())
	assert.Empty(t, svc.ListFlagged(ctx, domain.KindComment, 10))
}
