package gmailapi

import (
	"strings"

	"github.com/nikhil-bhat/mailsort/internal/rules"
)

// Wire shapes for the Gmail REST API. Only the fields this client reads are
// declared.

type listResponse struct {
	Messages      []messageRef `json:"messages"`
	NextPageToken string       `json:"nextPageToken"`
}

type messageRef struct {
	ID string `json:"id"`
}

type message struct {
	ID      string      `json:"id"`
	Payload messagePart `json:"payload"`
}

type messagePart struct {
	MimeType string        `json:"mimeType"`
	Headers  []header      `json:"headers"`
	Body     partBody      `json:"body"`
	Parts    []messagePart `json:"parts"`
}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type partBody struct {
	AttachmentID string `json:"attachmentId"`
	Size         int64  `json:"size"`
	Data         string `json:"data"`
}

type modifyRequest struct {
	AddLabelIDs []string `json:"addLabelIds"`
}

type labelList struct {
	Labels []Label `json:"labels"`
}

// Label is a Gmail label as returned by the labels endpoints.
type Label struct {
	ID                    string `json:"id,omitempty"`
	Name                  string `json:"name"`
	LabelListVisibility   string `json:"labelListVisibility,omitempty"`
	MessageListVisibility string `json:"messageListVisibility,omitempty"`
}

// normalize projects a raw message onto the view matching runs against.
// Header names are compared case-insensitively; a missing header yields an
// empty string rather than an error.
func normalize(msg message) rules.Message {
	m := rules.Message{ID: msg.ID}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			m.Sender = h.Value
		case "subject":
			m.Subject = h.Value
		}
	}
	m.HasNonDownloadableParts = hasNonDownloadableParts(msg.Payload)
	return m
}

// hasNonDownloadableParts walks the MIME tree looking for attachment-only
// parts (a body that is a reference, with no inline data). Matching never
// inspects these parts; the flag is carried for reporting only.
func hasNonDownloadableParts(part messagePart) bool {
	if part.Body.AttachmentID != "" && part.Body.Data == "" {
		return true
	}
	for _, sub := range part.Parts {
		if hasNonDownloadableParts(sub) {
			return true
		}
	}
	return false
}
