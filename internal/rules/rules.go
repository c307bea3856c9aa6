package rules

import (
	"errors"
	"time"
)

// Rule describes one sorting rule: which messages it applies to and which
// label it attaches. Each predicate has its own enable flag so a rule can
// match on sender, subject, both, or neither.
type Rule struct {
	ID           string    `json:"id"`
	Sender       string    `json:"sender"`
	SenderMatch  bool      `json:"sender_match"`
	Subject      string    `json:"subject"`
	SubjectMatch bool      `json:"subject_match"`
	LabelID      string    `json:"label_id"`
	LabelName    string    `json:"label_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is the normalized view of a mailbox message that matching runs
// against: the From and Subject header values, empty when the header is
// absent. HasNonDownloadableParts records whether the message carries
// attachment-only MIME parts; those parts are never inspected by matching.
type Message struct {
	ID                      string `json:"id"`
	Sender                  string `json:"sender"`
	Subject                 string `json:"subject"`
	HasNonDownloadableParts bool   `json:"has_non_downloadable_parts,omitempty"`
}

// Validate checks a rule before it is stored.
func (r Rule) Validate() error {
	if r.LabelID == "" {
		return errors.New("rule has no label id")
	}
	if r.SenderMatch && r.Sender == "" {
		return errors.New("sender matching enabled but sender pattern is empty")
	}
	if r.SubjectMatch && r.Subject == "" {
		return errors.New("subject matching enabled but subject pattern is empty")
	}
	return nil
}

// Describe returns a short human-readable summary of the rule's predicates.
func (r Rule) Describe() string {
	switch {
	case r.SenderMatch && r.SubjectMatch:
		return "from:" + r.Sender + " subject:" + r.Subject
	case r.SenderMatch:
		return "from:" + r.Sender
	case r.SubjectMatch:
		return "subject:" + r.Subject
	default:
		return "all messages"
	}
}
