package slackbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

type postedMessage struct {
	Channel string
	Text    string
	Blocks  string
}

type mockSlack struct {
	mu    sync.Mutex
	posts []postedMessage
}

func (m *mockSlack) all() []postedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]postedMessage(nil), m.posts...)
}

func newMockSlack(t *testing.T, ok bool) (*Notifier, *mockSlack) {
	t.Helper()
	mock := &mockSlack{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "chat.postMessage") {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		mock.mu.Lock()
		mock.posts = append(mock.posts, postedMessage{
			Channel: r.FormValue("channel"),
			Text:    r.FormValue("text"),
			Blocks:  r.FormValue("blocks"),
		})
		mock.mu.Unlock()
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.FormValue("channel"), "ts": "1700000000.000100"})
	}))
	t.Cleanup(server.Close)

	n := New("xoxb-test", "CALERT", "CDIGEST", zap.NewNop(), slack.OptionAPIURL(server.URL+"/api/"))
	return n, mock
}

func TestEscalateContent(t *testing.T) {
	n, mock := newMockSlack(t, true)
	item := domain.ContentItem{
		ID: 12, Kind: domain.KindComment, AuthorID: "u-9", Body: "I will   kill you",
		Severity: domain.SeverityMedium, Confidence: 0.45, Categories: []string{"threat"}, Source: domain.SourceFallback,
	}
	require.NoError(t, n.EscalateContent(context.Background(), item))

	posts := mock.all()
	require.Len(t, posts, 1)
	assert.Equal(t, "CALERT", posts[0].Channel)
	assert.Contains(t, posts[0].Text, "comment 12")
	assert.Contains(t, posts[0].Blocks, "I will kill you")
	assert.Contains(t, posts[0].Blocks, "threat")
}

func TestEscalateCrisisOmitsMessage(t *testing.T) {
	n, mock := newMockSlack(t, true)
	require.NoError(t, n.EscalateCrisis(context.Background(), "u-1", domain.IntentSelfHarm))

	posts := mock.all()
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].Text, "self_harm")
	assert.Contains(t, posts[0].Text, "u-1")
}

func TestPostReportDigest(t *testing.T) {
	n, mock := newMockSlack(t, true)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var listings []moderation.ReportListing
	for i := 1; i <= 12; i++ {
		listings = append(listings, moderation.ReportListing{
			Report: domain.Report{
				ID: int64(i), ReporterID: "a", ReportedUserID: "a", Reason: domain.AutoReportReason,
				Target: domain.PostTarget{PostID: int64(100 + i)}, ContentSnapshot: "bad words", CreatedAt: now,
			},
			Target: moderation.RemovedTarget{Snapshot: "bad words"},
		})
	}
	require.NoError(t, n.PostReportDigest(context.Background(), listings))
	require.NoError(t, n.PostReportDigest(context.Background(), nil))

	posts := mock.all()
	require.Len(t, posts, 2)
	assert.Equal(t, "CDIGEST", posts[0].Channel)
	assert.Contains(t, posts[0].Blocks, "12 pending report(s)")
	assert.Contains(t, posts[0].Blocks, "and 2 more")
	assert.Contains(t, posts[0].Blocks, "automatic")
	assert.Contains(t, posts[1].Text, "No pending reports")
}

func TestPostFailureIsReturned(t *testing.T) {
	n, _ := newMockSlack(t, false)
	err := n.EscalateCrisis(context.Background(), "u-1", domain.IntentSuicide)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet(" a\n\tb "))
	long := strings.Repeat("é", maxSnippet+5)
	assert.Equal(t, maxSnippet+1, len([]rune(snippet(long))))
}
