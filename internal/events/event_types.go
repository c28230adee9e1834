package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventReplyIngested fires after a reply has been durably appended to a
	// ticket. Handlers run after the append; nothing they do can roll it
	// back.
	EventReplyIngested EventType = "reply_ingested"
)

// Event represents a domain event emitted by the pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReplyIngestedPayload carries what notification handlers need without
// re-reading the ticket.
type ReplyIngestedPayload struct {
	ReplyID        string  `json:"reply_id"`
	TicketSubject  string  `json:"ticket_subject"`
	AuthorName     string  `json:"author_name"`
	AuthorEmail    string  `json:"author_email"`
	AssigneeEmail  *string `json:"assignee_email,omitempty"`
	OriginalSender string  `json:"original_sender,omitempty"`
	BodyPreview    string  `json:"body_preview"`
}
