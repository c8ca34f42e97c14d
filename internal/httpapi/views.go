package httpapi

import (
	"time"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

type moderationJSON struct {
	IsHateSpeech            bool            `json:"isHateSpeech"`
	Confidence              *float64        `json:"confidence,omitempty"`
	Categories              []string        `json:"categories"`
	Severity                domain.Severity `json:"severity"`
	RequiresImmediateAction bool            `json:"requiresImmediateAction,omitempty"`
	Source                  domain.Source   `json:"source,omitempty"`
}

// verdictJSON is the full verdict, for admins only.
func verdictJSON(v domain.Verdict) *moderationJSON {
	confidence := v.Confidence
	return &moderationJSON{
		IsHateSpeech:            v.IsHateSpeech,
		Confidence:              &confidence,
		Categories:              nonNil(v.Categories),
		Severity:                v.Severity,
		RequiresImmediateAction: v.RequiresImmediateAction,
		Source:                  v.Source,
	}
}

// authorVerdictJSON is what an author learns about their own submission.
// Confidence, provenance and the escalation flag stay admin-only.
func authorVerdictJSON(v domain.Verdict) *moderationJSON {
	return &moderationJSON{
		IsHateSpeech: v.IsHateSpeech,
		Categories:   nonNil(v.Categories),
		Severity:     v.Severity,
	}
}

func nonNil(categories []string) []string {
	if categories == nil {
		return []string{}
	}
	return categories
}

type contentJSON struct {
	ID        int64                `json:"id"`
	Type      domain.ContentKind   `json:"type"`
	PostID    int64                `json:"postId,omitempty"`
	AuthorID  string               `json:"authorId"`
	CreatedAt time.Time            `json:"createdAt"`
	Status    domain.ContentStatus `json:"status,omitempty"`
	// View is visible, withheld, appealable or admin.
	View       string          `json:"view"`
	Content    string          `json:"content,omitempty"`
	Appealable bool            `json:"appealable,omitempty"`
	Moderation *moderationJSON `json:"moderation,omitempty"`
}

func renderContent(item domain.ContentItem, view moderation.ContentView) contentJSON {
	out := contentJSON{
		ID:        item.ID,
		Type:      item.Kind,
		PostID:    item.PostID,
		AuthorID:  item.AuthorID,
		CreatedAt: item.CreatedAt,
	}
	switch v := view.(type) {
	case moderation.VisibleView:
		out.View = "visible"
		out.Content = v.Body
	case moderation.AppealableView:
		out.View = "appealable"
		out.Content = v.Body
		out.Appealable = true
		out.Status = item.Status
		out.Moderation = &moderationJSON{IsHateSpeech: true, Severity: v.Severity, Categories: v.Categories}
	case moderation.AdminView:
		out.View = "admin"
		out.Content = v.Body
		out.Status = v.Status
		out.Moderation = verdictJSON(v.Verdict)
	default:
		out.View = "withheld"
	}
	return out
}

type profileJSON struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Banned   bool   `json:"banned,omitempty"`
}

func renderProfile(p domain.Profile) *profileJSON {
	if p.UserID == "" {
		return nil
	}
	return &profileJSON{UserID: p.UserID, Username: p.Username, FullName: p.FullName, Banned: p.Banned}
}

type targetJSON struct {
	Type domain.ContentKind `json:"type"`
	ID   int64              `json:"id"`
	// State is live, removed or unknown.
	State      string               `json:"state"`
	Content    string               `json:"content"`
	Status     domain.ContentStatus `json:"status,omitempty"`
	Moderation *moderationJSON      `json:"moderation,omitempty"`
}

type reportJSON struct {
	ID         int64               `json:"id"`
	Reason     string              `json:"reason"`
	Status     domain.ReportStatus `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	ResolvedAt *time.Time          `json:"resolvedAt,omitempty"`
	Automatic  bool                `json:"automatic"`
	Target     targetJSON          `json:"target"`
	Reporter   *profileJSON        `json:"reporter,omitempty"`
	Reported   *profileJSON        `json:"reported,omitempty"`
	Degraded   bool                `json:"degraded,omitempty"`
}

func renderReport(r domain.Report) reportJSON {
	out := reportJSON{
		ID:        r.ID,
		Reason:    r.Reason,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		Automatic: r.IsAutomatic(),
		Target:    targetJSON{State: "unknown", Content: r.ContentSnapshot},
	}
	if !r.ResolvedAt.IsZero() {
		resolved := r.ResolvedAt
		out.ResolvedAt = &resolved
	}
	if r.Target != nil {
		out.Target.Type = r.Target.Kind()
		out.Target.ID = r.Target.ID()
	}
	return out
}

func renderListing(l moderation.ReportListing) reportJSON {
	out := renderReport(l.Report)
	out.Reporter = renderProfile(l.Reporter)
	out.Reported = renderProfile(l.Reported)
	out.Degraded = l.Degraded
	switch t := l.Target.(type) {
	case moderation.LiveTarget:
		out.Target.State = "live"
		out.Target.Content = t.Item.Body
		out.Target.Status = t.Item.Status
		out.Target.Moderation = verdictJSON(t.Item.Verdict())
	case moderation.RemovedTarget:
		out.Target.State = "removed"
		out.Target.Content = t.Snapshot
	case moderation.UnknownTarget:
		out.Target.Content = t.Snapshot
	}
	return out
}
