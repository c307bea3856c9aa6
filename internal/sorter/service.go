package sorter

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nikhil-bhat/mailsort/internal/rules"
)

// Status classifies one outcome of a batch.
type Status string

const (
	// StatusApplied records a label successfully attached to a message.
	StatusApplied Status = "applied"
	// StatusFailed records a per-message or per-rule failure. The batch
	// keeps going; nothing else is affected.
	StatusFailed Status = "failed"
	// StatusNoRules is the single outcome of a batch that found no rules to
	// run. It short-circuits before any metadata is fetched.
	StatusNoRules Status = "no-rules"
)

// Outcome is one per-message, per-rule result. Outcomes live for one batch
// and are never persisted; rerunning the batch is always safe because
// labeling is idempotent.
type Outcome struct {
	MessageID string `json:"message_id,omitempty"`
	RuleID    string `json:"rule_id,omitempty"`
	LabelID   string `json:"label_id,omitempty"`
	Status    Status `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// Gateway is the slice of the mailbox API the sorter needs.
type Gateway interface {
	ListMessages(ctx context.Context) ([]string, error)
	GetMetadata(ctx context.Context, id string) (rules.Message, error)
	ApplyLabel(ctx context.Context, id, labelID string) error
}

// RuleLister supplies the ordered list of active rules.
type RuleLister interface {
	ListRules(ctx context.Context) ([]rules.Rule, error)
}

// Service drives one sorting batch end to end: list messages, fetch each
// message's metadata, match it against the rule snapshot, apply every
// matching label. Failures are isolated per message and per rule.
type Service struct {
	Gateway Gateway
	Rules   RuleLister
	Log     *slog.Logger

	// Concurrency bounds the per-message fan-out. Values below 1 mean
	// sequential processing.
	Concurrency int
}

// NewService returns a sorter over the given collaborators.
func NewService(gateway Gateway, ruleLister RuleLister, log *slog.Logger) *Service {
	return &Service{
		Gateway: gateway,
		Rules:   ruleLister,
		Log:     log,
	}
}

// Run lists the mailbox and processes every message. An empty mailbox yields
// an empty outcome list.
func (s *Service) Run(ctx context.Context) ([]Outcome, error) {
	ids, err := s.Gateway.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		s.Log.Info("no messages to sort")
		return nil, nil
	}
	return s.ProcessBatch(ctx, ids)
}

// ProcessBatch evaluates each message against a snapshot of the rule list
// taken once at the start, so rule edits mid-batch never change this batch's
// semantics. A rule-store failure aborts before any message is touched; from
// then on every failure is recorded as an Outcome and processing continues.
func (s *Service) ProcessBatch(ctx context.Context, ids []string) ([]Outcome, error) {
	snapshot, err := s.Rules.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		s.Log.Info("no active rules, skipping batch", "messages", len(ids))
		return []Outcome{{Status: StatusNoRules, Detail: "no active rules"}}, nil
	}

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)
	record := func(batch []Outcome) {
		mu.Lock()
		outcomes = append(outcomes, batch...)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	if s.Concurrency > 1 {
		g.SetLimit(s.Concurrency)
	} else {
		g.SetLimit(1)
	}

	for _, id := range ids {
		g.Go(func() error {
			record(s.processMessage(ctx, id, snapshot))
			// Per-message failures never abort the batch.
			return nil
		})
	}
	// Completion waits for every message regardless of individual failures.
	_ = g.Wait()

	return outcomes, nil
}

// processMessage fetches one message's metadata and applies every matching
// rule. A metadata fetch failure yields one failed outcome; a label failure
// yields a failed outcome for that (message, rule) pair and the remaining
// matches still run. Partially applied labels are left in place.
func (s *Service) processMessage(ctx context.Context, id string, snapshot []rules.Rule) []Outcome {
	msg, err := s.Gateway.GetMetadata(ctx, id)
	if err != nil {
		s.Log.Error("failed to fetch message metadata", "id", id, "error", err)
		return []Outcome{{MessageID: id, Status: StatusFailed, Detail: err.Error()}}
	}

	matched := rules.Match(msg, snapshot)
	if len(matched) == 0 {
		return nil
	}

	outcomes := make([]Outcome, 0, len(matched))
	for _, r := range matched {
		out := Outcome{MessageID: id, RuleID: r.ID, LabelID: r.LabelID}
		if err := s.Gateway.ApplyLabel(ctx, id, r.LabelID); err != nil {
			s.Log.Error("failed to apply label", "id", id, "rule", r.ID, "label", r.LabelID, "error", err)
			out.Status = StatusFailed
			out.Detail = err.Error()
		} else {
			s.Log.Info("applied label", "id", id, "rule", r.ID, "label", r.LabelName)
			out.Status = StatusApplied
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// Summary condenses a batch's outcomes for reporting.
type Summary struct {
	Applied int
	Failed  int
	NoRules bool
}

// Summarize tallies outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	var sum Summary
	for _, o := range outcomes {
		switch o.Status {
		case StatusApplied:
			sum.Applied++
		case StatusFailed:
			sum.Failed++
		case StatusNoRules:
			sum.NoRules = true
		}
	}
	return sum
}
