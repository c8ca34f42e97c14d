package domain

import (
	"reflect"
	"testing"
)

func TestTargetFromColumnsRequiresExactlyOne(t *testing.T) {
	one, two := int64(1), int64(2)
	tests := []struct {
		name      string
		postID    *int64
		commentID *int64
		want      ReportTarget
		wantErr   bool
	}{
		{name: "post", postID: &one, want: PostTarget{PostID: 1}},
		{name: "comment", commentID: &two, want: CommentTarget{CommentID: 2}},
		{name: "neither", wantErr: true},
		{name: "both", postID: &one, commentID: &two, wantErr: true},
	}
	for _, tt := range tests {
		got, err := TargetFromColumns(tt.postID, tt.commentID)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got target %#v", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %#v, want %#v", tt.name, got, tt.want)
		}
		p, c := TargetColumns(got)
		back, err := TargetFromColumns(p, c)
		if err != nil || back != got {
			t.Fatalf("%s: columns did not map back: %#v %v", tt.name, back, err)
		}
	}
}

func TestNewReportTargetRejectsBadInput(t *testing.T) {
	if _, err := NewReportTarget(KindPost, 0); err == nil {
		t.Fatal("expected error for zero id")
	}
	if _, err := NewReportTarget("user", 3); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	target, err := NewReportTarget(KindComment, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Kind() != KindComment || target.ID() != 9 {
		t.Fatalf("unexpected target %#v", target)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ContentStatus
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusFlagged, true},
		{StatusFlagged, StatusApproved, true},
		{StatusApproved, StatusApproved, true},
		{StatusApproved, StatusFlagged, false},
		{StatusFlagged, StatusPending, false},
		{StatusApproved, StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNormalizeCategories(t *testing.T) {
	got := NormalizeCategories([]string{" Threat", "hate_speech", "threat", "", "HATE_SPEECH"})
	want := []string{"hate_speech", "threat"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := SplitCategories(JoinCategories(want)); !reflect.DeepEqual(got, want) {
		t.Fatalf("split/join mismatch: %v", got)
	}
	if got := SplitCategories(""); got != nil {
		t.Fatalf("expected nil for empty, got %v", got)
	}
}

func TestCategoriesWithCommasSurviveStorage(t *testing.T) {
	stored := JoinCategories([]string{"hate, speech", "threat"})
	got := SplitCategories(stored)
	want := []string{"hate speech", "threat"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v from %q, want %v", got, stored, want)
	}
}

func TestSeverityRank(t *testing.T) {
	order := []Severity{SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("%s should rank above %s", order[i], order[i-1])
		}
	}
	if sev, ok := ParseSeverity(" HIGH "); !ok || sev != SeverityHigh {
		t.Fatalf("ParseSeverity = %s %v", sev, ok)
	}
	if _, ok := ParseSeverity("extreme"); ok {
		t.Fatal("expected unknown severity to fail")
	}
}

func TestIntentCategoryGroups(t *testing.T) {
	for _, c := range []IntentCategory{IntentSuicide, IntentSelfHarm, IntentDomesticAbuse} {
		if !c.IsCrisis() {
			t.Fatalf("%s should be crisis", c)
		}
	}
	for _, c := range []IntentCategory{IntentOnlineHarassment, IntentHateSpeech, IntentSad, IntentDefault} {
		if c.IsCrisis() {
			t.Fatalf("%s should not be crisis", c)
		}
	}
	if !IntentHateSpeech.SuggestsReport() || IntentSad.SuggestsReport() {
		t.Fatal("unexpected SuggestsReport result")
	}
}
