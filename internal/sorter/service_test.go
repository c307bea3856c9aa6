package sorter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/nikhil-bhat/mailsort/internal/rules"
)

type applyCall struct {
	MessageID string
	LabelID   string
}

type fakeGateway struct {
	mu sync.Mutex

	listIDs  []string
	listErr  error
	metadata map[string]rules.Message
	metaErr  map[string]error
	applyErr map[string]error // keyed by "id/label"

	metaCalls  []string
	applyCalls []applyCall
}

func (f *fakeGateway) ListMessages(ctx context.Context) ([]string, error) {
	return f.listIDs, f.listErr
}

func (f *fakeGateway) GetMetadata(ctx context.Context, id string) (rules.Message, error) {
	f.mu.Lock()
	f.metaCalls = append(f.metaCalls, id)
	f.mu.Unlock()
	if err := f.metaErr[id]; err != nil {
		return rules.Message{}, err
	}
	if msg, ok := f.metadata[id]; ok {
		return msg, nil
	}
	return rules.Message{ID: id}, nil
}

func (f *fakeGateway) ApplyLabel(ctx context.Context, id, labelID string) error {
	f.mu.Lock()
	f.applyCalls = append(f.applyCalls, applyCall{MessageID: id, LabelID: labelID})
	f.mu.Unlock()
	return f.applyErr[id+"/"+labelID]
}

type fakeRuleLister struct {
	rules []rules.Rule
	err   error
	calls int
}

func (f *fakeRuleLister) ListRules(ctx context.Context) ([]rules.Rule, error) {
	f.calls++
	return f.rules, f.err
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessBatchNoActiveRules(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewService(gateway, &fakeRuleLister{}, slogDiscard())

	outcomes, err := svc.ProcessBatch(context.Background(), []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != StatusNoRules {
		t.Fatalf("expected single no-rules outcome, got %+v", outcomes)
	}
	if len(gateway.metaCalls) != 0 || len(gateway.applyCalls) != 0 {
		t.Error("expected zero network calls when no rules are active")
	}
}

func TestProcessBatchSingleSenderRule(t *testing.T) {
	gateway := &fakeGateway{
		metadata: map[string]rules.Message{
			"m1": {ID: "m1", Sender: "x@y.com", Subject: "anything"},
		},
	}
	lister := &fakeRuleLister{rules: []rules.Rule{
		{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"},
	}}
	svc := NewService(gateway, lister, slogDiscard())

	outcomes, err := svc.ProcessBatch(context.Background(), []string{"m1"})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if len(gateway.applyCalls) != 1 {
		t.Fatalf("expected exactly 1 apply call, got %d", len(gateway.applyCalls))
	}
	if gateway.applyCalls[0] != (applyCall{MessageID: "m1", LabelID: "L1"}) {
		t.Errorf("unexpected apply call %+v", gateway.applyCalls[0])
	}
	if len(outcomes) != 1 || outcomes[0].Status != StatusApplied {
		t.Errorf("unexpected outcomes %+v", outcomes)
	}
}

func TestProcessBatchAppliesEveryMatch(t *testing.T) {
	gateway := &fakeGateway{
		metadata: map[string]rules.Message{
			"m1": {ID: "m1", Sender: "billing@acme.com", Subject: "invoice #7"},
		},
	}
	lister := &fakeRuleLister{rules: []rules.Rule{
		{ID: "r1", Sender: "acme.com", SenderMatch: true, LabelID: "L1"},
		{ID: "r2", Subject: "invoice", SubjectMatch: true, LabelID: "L2"},
		{ID: "r3", Sender: "nobody", SenderMatch: true, LabelID: "L3"},
		{ID: "r4", LabelID: "L4"}, // catch-all
	}}
	svc := NewService(gateway, lister, slogDiscard())

	outcomes, err := svc.ProcessBatch(context.Background(), []string{"m1"})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	wantLabels := []string{"L1", "L2", "L4"}
	if len(gateway.applyCalls) != len(wantLabels) {
		t.Fatalf("expected %d apply calls, got %d", len(wantLabels), len(gateway.applyCalls))
	}
	for i, want := range wantLabels {
		if gateway.applyCalls[i].LabelID != want {
			t.Errorf("apply call %d: got label %s, want %s", i, gateway.applyCalls[i].LabelID, want)
		}
	}
	if len(outcomes) != 3 {
		t.Errorf("expected 3 outcomes, got %d", len(outcomes))
	}
}

func TestProcessBatchMessageIsolation(t *testing.T) {
	gateway := &fakeGateway{
		metadata: map[string]rules.Message{
			"m2": {ID: "m2", Sender: "x@y.com"},
		},
		metaErr: map[string]error{
			"m1": errors.New("metadata fetch failed"),
		},
	}
	lister := &fakeRuleLister{rules: []rules.Rule{
		{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"},
	}}
	svc := NewService(gateway, lister, slogDiscard())

	outcomes, err := svc.ProcessBatch(context.Background(), []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	var m1Failed, m2Applied bool
	for _, o := range outcomes {
		if o.MessageID == "m1" && o.Status == StatusFailed {
			m1Failed = true
		}
		if o.MessageID == "m2" && o.Status == StatusApplied {
			m2Applied = true
		}
	}
	if !m1Failed {
		t.Error("expected a failed outcome for m1")
	}
	if !m2Applied {
		t.Error("m1's failure must not prevent labeling m2")
	}
}

func TestProcessBatchRuleFailureIsolation(t *testing.T) {
	gateway := &fakeGateway{
		metadata: map[string]rules.Message{
			"m1": {ID: "m1", Sender: "x@y.com", Subject: "report"},
		},
		applyErr: map[string]error{
			"m1/L1": errors.New("label gone"),
		},
	}
	lister := &fakeRuleLister{rules: []rules.Rule{
		{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"},
		{ID: "r2", Subject: "report", SubjectMatch: true, LabelID: "L2"},
	}}
	svc := NewService(gateway, lister, slogDiscard())

	outcomes, err := svc.ProcessBatch(context.Background(), []string{"m1"})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if len(gateway.applyCalls) != 2 {
		t.Fatalf("a failed label must not block the next match: got %d apply calls", len(gateway.applyCalls))
	}
	sum := Summarize(outcomes)
	if sum.Failed != 1 || sum.Applied != 1 {
		t.Errorf("unexpected summary %+v from outcomes %+v", sum, outcomes)
	}
}

func TestProcessBatchRuleStoreErrorPropagates(t *testing.T) {
	gateway := &fakeGateway{}
	lister := &fakeRuleLister{err: errors.New("storage offline")}
	svc := NewService(gateway, lister, slogDiscard())

	if _, err := svc.ProcessBatch(context.Background(), []string{"m1"}); err == nil {
		t.Fatal("expected rule store failure to propagate")
	}
	if len(gateway.metaCalls) != 0 {
		t.Error("no message should be touched when the rule snapshot fails")
	}
}

func TestProcessBatchSnapshotsRulesOnce(t *testing.T) {
	gateway := &fakeGateway{
		metadata: map[string]rules.Message{
			"m1": {ID: "m1", Sender: "x@y.com"},
			"m2": {ID: "m2", Sender: "x@y.com"},
		},
	}
	lister := &fakeRuleLister{rules: []rules.Rule{
		{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"},
	}}
	svc := NewService(gateway, lister, slogDiscard())

	if _, err := svc.ProcessBatch(context.Background(), []string{"m1", "m2"}); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("expected 1 rule snapshot, got %d", lister.calls)
	}
}

func TestProcessBatchConcurrent(t *testing.T) {
	gateway := &fakeGateway{metadata: map[string]rules.Message{}}
	var ids []string
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("m%02d", i)
		ids = append(ids, id)
		gateway.metadata[id] = rules.Message{ID: id, Sender: "x@y.com"}
	}
	lister := &fakeRuleLister{rules: []rules.Rule{
		{ID: "r1", Sender: "x@y.com", SenderMatch: true, LabelID: "L1"},
	}}

	svc := NewService(gateway, lister, slogDiscard())
	svc.Concurrency = 4

	outcomes, err := svc.ProcessBatch(context.Background(), ids)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if len(outcomes) != len(ids) {
		t.Fatalf("expected %d outcomes, got %d", len(ids), len(outcomes))
	}
	seen := make(map[string]bool)
	for _, o := range outcomes {
		if o.Status != StatusApplied {
			t.Errorf("unexpected outcome %+v", o)
		}
		seen[o.MessageID] = true
	}
	if len(seen) != len(ids) {
		t.Errorf("expected every message exactly once, saw %d", len(seen))
	}
}

func TestRunEmptyMailbox(t *testing.T) {
	gateway := &fakeGateway{}
	lister := &fakeRuleLister{rules: []rules.Rule{{ID: "r1", LabelID: "L1"}}}
	svc := NewService(gateway, lister, slogDiscard())

	outcomes, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes for empty mailbox, got %+v", outcomes)
	}
}

func TestRunListFailurePropagates(t *testing.T) {
	gateway := &fakeGateway{listErr: errors.New("boom")}
	svc := NewService(gateway, &fakeRuleLister{}, slogDiscard())

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected list failure to propagate")
	}
}

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{
		{Status: StatusApplied},
		{Status: StatusApplied},
		{Status: StatusFailed},
	}
	sum := Summarize(outcomes)
	if sum.Applied != 2 || sum.Failed != 1 || sum.NoRules {
		t.Errorf("unexpected summary %+v", sum)
	}
}
