package rules

import "testing"

func TestMatchSenderPredicate(t *testing.T) {
	rule := Rule{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"}

	tests := []struct {
		name  string
		msg   Message
		want  bool
	}{
		{
			name: "exact sender",
			msg:  Message{Sender: "x@y.com", Subject: "anything"},
			want: true,
		},
		{
			name: "sender embedded in display form",
			msg:  Message{Sender: "Someone <x@y.com>", Subject: "hello"},
			want: true,
		},
		{
			name: "different sender",
			msg:  Message{Sender: "other@z.com", Subject: "anything"},
			want: false,
		},
		{
			name: "case sensitive",
			msg:  Message{Sender: "X@Y.COM", Subject: "anything"},
			want: false,
		},
		{
			name: "subject never consulted when only sender enabled",
			msg:  Message{Sender: "x@y.com", Subject: ""},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(tt.msg, rule)
			if got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchSubjectPredicate(t *testing.T) {
	rule := Rule{ID: "r1", Subject: "invoice", SubjectMatch: true, LabelID: "L1"}

	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"substring", Message{Subject: "Your invoice for March"}, true},
		{"missing", Message{Subject: "Receipt"}, false},
		{"case sensitive", Message{Subject: "INVOICE"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.msg, rule); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchBothPredicates(t *testing.T) {
	rule := Rule{
		ID:           "r1",
		Sender:       "billing@acme.com",
		SenderMatch:  true,
		Subject:      "invoice",
		SubjectMatch: true,
		LabelID:      "L1",
	}

	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"both satisfied", Message{Sender: "billing@acme.com", Subject: "invoice #42"}, true},
		{"sender only", Message{Sender: "billing@acme.com", Subject: "welcome"}, false},
		{"subject only", Message{Sender: "news@acme.com", Subject: "invoice #42"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.msg, rule); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A rule with both predicates disabled is a catch-all. This looks like a bug
// at first sight but is accepted behavior: every predicate that is disabled
// is vacuously satisfied.
func TestMatchCatchAllRule(t *testing.T) {
	rule := Rule{ID: "r1", LabelID: "L1"}

	msgs := []Message{
		{Sender: "a@b.com", Subject: "hello"},
		{Sender: "", Subject: ""},
		{Sender: "anything", Subject: "at all", HasNonDownloadableParts: true},
	}
	for _, msg := range msgs {
		if !Matches(msg, rule) {
			t.Errorf("catch-all rule did not match %+v", msg)
		}
	}
}

func TestMatchPreservesOrderAndMultiplicity(t *testing.T) {
	rs := []Rule{
		{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"},
		{ID: "r2", Subject: "report", SubjectMatch: true, LabelID: "L2"},
		{ID: "r3", LabelID: "L3"}, // catch-all
		{ID: "r4", Sender: "nobody@else.com", SenderMatch: true, LabelID: "L4"},
	}

	msg := Message{Sender: "x@y.com", Subject: "weekly report"}
	got := Match(msg, rs)

	wantIDs := []string{"r1", "r2", "r3"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d matches, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("match %d: got rule %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMatchNoRules(t *testing.T) {
	got := Match(Message{Sender: "x@y.com"}, nil)
	if len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestMatchAttachmentsDoNotAffectOutcome(t *testing.T) {
	rule := Rule{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"}

	plain := Message{Sender: "x@y.com", Subject: "s"}
	withParts := Message{Sender: "x@y.com", Subject: "s", HasNonDownloadableParts: true}

	if Matches(plain, rule) != Matches(withParts, rule) {
		t.Error("non-downloadable parts changed the match outcome")
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid sender rule", Rule{Sender: "a@b.com", SenderMatch: true, LabelID: "L1"}, false},
		{"valid catch-all", Rule{LabelID: "L1"}, false},
		{"missing label", Rule{Sender: "a@b.com", SenderMatch: true}, true},
		{"enabled sender with empty pattern", Rule{SenderMatch: true, LabelID: "L1"}, true},
		{"enabled subject with empty pattern", Rule{SubjectMatch: true, LabelID: "L1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
