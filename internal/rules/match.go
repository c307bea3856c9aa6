package rules

import "strings"

// Match evaluates a message against the given rules and returns the subset
// that matched, in the caller's order. Every rule is evaluated independently:
// there is no short-circuit after the first match, no deduplication, and one
// message may match any number of rules.
//
// A rule matches when every enabled predicate is satisfied. An enabled sender
// predicate requires the rule's sender pattern to appear as a case-sensitive
// substring of the message's From header; the subject predicate works the
// same way against Subject. A disabled predicate is vacuously satisfied, so a
// rule with both predicates disabled matches every message. That is intended:
// such a rule is a catch-all, not a misconfiguration.
func Match(msg Message, rs []Rule) []Rule {
	var matched []Rule
	for _, r := range rs {
		if Matches(msg, r) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Matches reports whether a single rule applies to the message.
func Matches(msg Message, r Rule) bool {
	if r.SenderMatch && !strings.Contains(msg.Sender, r.Sender) {
		return false
	}
	if r.SubjectMatch && !strings.Contains(msg.Subject, r.Subject) {
		return false
	}
	return true
}
