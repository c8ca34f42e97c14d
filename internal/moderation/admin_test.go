package moderation

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safefeed/internal/domain"
)

var admin = Viewer{UserID: "root", IsAdmin: true}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		cmd   Command
		valid bool
	}{
		{Command{Type: CommandPost, ID: "1", Action: ActionApprove}, true},
		{Command{Type: CommandPost, ID: "1", Action: ActionRemove}, true},
		{Command{Type: CommandComment, ID: "42", Action: ActionRemove}, true},
		{Command{Type: CommandReport, ID: "3", Action: ActionResolve}, true},
		{Command{Type: CommandReport, ID: "3", Action: ActionApprove}, true},
		{Command{Type: CommandUser, ID: "user-1", Action: ActionBan}, true},
		{Command{Type: CommandUser, ID: "user-1", Action: ActionRemove}, false},
		{Command{Type: CommandPost, ID: "1", Action: ActionBan}, false},
		{Command{Type: CommandComment, ID: "1", Action: "delete"}, false},
		{Command{Type: "thread", ID: "1", Action: ActionApprove}, false},
		{Command{Type: CommandPost, ID: "abc", Action: ActionApprove}, false},
		{Command{Type: CommandPost, ID: "-4", Action: ActionApprove}, false},
		{Command{Type: CommandUser, ID: " ", Action: ActionBan}, false},
	}
	for _, tt := range tests {
		err := tt.cmd.Validate()
		if tt.valid {
			assert.NoError(t, err, "%+v", tt.cmd)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAction, "%+v", tt.cmd)
		}
	}
}

func TestModerateRequiresAdmin(t *testing.T) {
	svc := newTestService(t, newMemStore(), nil)
	err := svc.Moderate(context.Background(), Viewer{UserID: "nobody"}, Command{Type: CommandPost, ID: "1", Action: ActionApprove})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestModerateRemoveCommentTwice(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	post, err := svc.SubmitPost(ctx, "a", "a post", "")
	require.NoError(t, err)
	comment, err := svc.SubmitComment(ctx, post.Item.ID, "b", "a comment", "")
	require.NoError(t, err)

	cmd := Command{Type: CommandComment, ID: strconv.FormatInt(comment.Item.ID, 10), Action: ActionRemove}
	require.NoError(t, svc.Moderate(ctx, admin, cmd))

	_, err = store.GetContent(ctx, domain.KindComment, comment.Item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Moderate(ctx, admin, cmd), ErrNotFound)
}

func TestModerateApproveIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	res, err := svc.SubmitPost(ctx, "a", "I will kill you", "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFlagged, res.Item.Status)

	cmd := Command{Type: CommandPost, ID: strconv.FormatInt(res.Item.ID, 10), Action: ActionApprove}
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Moderate(ctx, admin, cmd))
		item, err := store.GetContent(ctx, domain.KindPost, res.Item.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, item.Status)
		assert.False(t, item.Flagged)
		assert.Equal(t, domain.SeverityMedium, item.Severity, "verdict fields are never recomputed")
	}
}

func TestModerateApproveRejectsUnknownStatus(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	id, err := store.CreateContent(ctx, domain.ContentItem{
		Kind: domain.KindPost, AuthorID: "a", Body: "legacy row", Status: "quarantined",
	})
	require.NoError(t, err)

	err = svc.Moderate(ctx, admin, Command{Type: CommandPost, ID: strconv.FormatInt(id, 10), Action: ActionApprove})
	assert.ErrorIs(t, err, ErrInvalidAction)

	item, err := store.GetContent(ctx, domain.KindPost, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentStatus("quarantined"), item.Status)
}

func TestModerateResolveReportAndBanUser(t *testing.T) {
	store := newMemStore()
	store.profiles["troll"] = domain.Profile{UserID: "troll", Username: "troll"}
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	res, err := svc.SubmitPost(ctx, "troll", "I will kill you", "")
	require.NoError(t, err)
	require.NotZero(t, res.ReportID)

	resolve := Command{Type: CommandReport, ID: strconv.FormatInt(res.ReportID, 10), Action: ActionResolve}
	require.NoError(t, svc.Moderate(ctx, admin, resolve))
	require.NoError(t, svc.Moderate(ctx, admin, resolve))
	report, err := store.GetReport(ctx, res.ReportID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportResolved, report.Status)

	ban := Command{Type: CommandUser, ID: "troll", Action: ActionBan}
	require.NoError(t, svc.Moderate(ctx, admin, ban))
	require.NoError(t, svc.Moderate(ctx, admin, ban))
	_, err = svc.SubmitPost(ctx, "troll", "hello again", "")
	assert.ErrorIs(t, err, ErrAuthorBanned)

	assert.ErrorIs(t, svc.Moderate(ctx, admin, Command{Type: CommandUser, ID: "ghost", Action: ActionBan}), ErrNotFound)
	assert.ErrorIs(t, svc.Moderate(ctx, admin, Command{Type: CommandReport, ID: "777", Action: ActionResolve}), ErrNotFound)
}

func TestResolveViewer(t *testing.T) {
	store := newMemStore()
	store.profiles["mod"] = domain.Profile{UserID: "mod", IsAdmin: true}
	store.profiles["user"] = domain.Profile{UserID: "user"}
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	assert.Equal(t, Viewer{UserID: "mod", IsAdmin: true}, svc.ResolveViewer(ctx, "mod"))
	assert.Equal(t, Viewer{UserID: "user"}, svc.ResolveViewer(ctx, "user"))
	assert.Equal(t, Viewer{UserID: "stranger"}, svc.ResolveViewer(ctx, "stranger"))
	assert.Equal(t, Viewer{}, svc.ResolveViewer(ctx, ""))
}

type recordingLabeler struct {
	labels map[int64]bool
}

func (r *recordingLabeler) RecordHumanLabel(item domain.ContentItem, isHateSpeech bool) {
	r.labels[item.ID] = isHateSpeech
}

func TestModerateFeedsHumanLabels(t *testing.T) {
	store := newMemStore()
	labeler := &recordingLabeler{labels: map[int64]bool{}}
	svc := NewService(store, offlineClassifier{fallback: NewFallbackDetector(DefaultFallbackConfig())}, nil, Options{Labeler: labeler})
	ctx := context.Background()

	kept, err := svc.SubmitPost(ctx, "a", "I will kill you", "")
	require.NoError(t, err)
	removed, err := svc.SubmitPost(ctx, "a", "I will hurt and kill you", "")
	require.NoError(t, err)
	clean, err := svc.SubmitPost(ctx, "a", "lovely weather", "")
	require.NoError(t, err)

	for _, cmd := range []Command{
		{Type: CommandPost, ID: strconv.FormatInt(kept.Item.ID, 10), Action: ActionApprove},
		{Type: CommandPost, ID: strconv.FormatInt(removed.Item.ID, 10), Action: ActionRemove},
		{Type: CommandPost, ID: strconv.FormatInt(clean.Item.ID, 10), Action: ActionRemove},
	} {
		require.NoError(t, svc.Moderate(ctx, admin, cmd))
	}

	assert.Equal(t, map[int64]bool{kept.Item.ID: false, removed.Item.ID: true}, labeler.labels)
}
