package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
)

// TicketSnapshot is the read model of a ticket as the ingestion pipeline
// sees it. The ticket store owns the full document; this carries only what
// resolution, authorization and notification need.
type TicketSnapshot struct {
	ID                string
	Subject           string
	Status            TicketStatus
	SubmitterID       string
	SubmitterEmail    string
	SubmitterName     string
	AssigneeID        *string
	AssigneeEmail     *string
	ParticipantEmails []string
	LastActivityAt    time.Time
}

// AuthorizedSenderEmails returns the set of addresses allowed to reply to
// this ticket directly: submitter, every participant, and the assignee.
// Addresses are lowercased for comparison.
func (t *TicketSnapshot) AuthorizedSenderEmails() map[string]struct{} {
	set := make(map[string]struct{}, len(t.ParticipantEmails)+2)
	if t.SubmitterEmail != "" {
		set[strings.ToLower(t.SubmitterEmail)] = struct{}{}
	}
	for _, email := range t.ParticipantEmails {
		if email != "" {
			set[strings.ToLower(email)] = struct{}{}
		}
	}
	if t.AssigneeEmail != nil && *t.AssigneeEmail != "" {
		set[strings.ToLower(*t.AssigneeEmail)] = struct{}{}
	}
	return set
}
