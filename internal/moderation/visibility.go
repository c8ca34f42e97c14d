package moderation

import "safefeed/internal/domain"

// ContentView is what a given viewer may see of an item. It is exactly one
// of VisibleView, WithheldView, AppealableView or AdminView.
type ContentView interface {
	isContentView()
}

type VisibleView struct {
	Body string
}

// WithheldView hides the body entirely.
type WithheldView struct{}

// AppealableView is shown to the author of withheld content.
type AppealableView struct {
	Body       string
	Severity   domain.Severity
	Categories []string
}

type AdminView struct {
	Body    string
	Status  domain.ContentStatus
	Verdict domain.Verdict
}

func (VisibleView) isContentView()    {}
func (WithheldView) isContentView()   {}
func (AppealableView) isContentView() {}
func (AdminView) isContentView()      {}

// View applies the visibility rule: only approved bodies are public, admins
// see everything with verdict detail, and authors see their own withheld
// content with an appeal option.
func View(item domain.ContentItem, viewer Viewer) ContentView {
	if viewer.IsAdmin {
		return AdminView{Body: item.Body, Status: item.Status, Verdict: item.Verdict()}
	}
	if item.Status == domain.StatusApproved && !item.Flagged {
		return VisibleView{Body: item.Body}
	}
	if viewer.UserID != "" && viewer.UserID == item.AuthorID {
		return AppealableView{Body: item.Body, Severity: item.Severity, Categories: item.Categories}
	}
	return WithheldView{}
}
