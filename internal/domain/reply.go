package domain

import "time"

// ReplySourceEmail marks replies that entered through the inbound mail
// pipeline, as opposed to the web UI.
const ReplySourceEmail = "email"

// StoredAttachment is the metadata for a file persisted to object storage.
// The binary exists in storage before any ReplyRecord referencing it is
// committed.
type StoredAttachment struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StorageURL  string    `json:"storageUrl"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ReplyRecord is appended, never mutated, to a ticket's ordered reply
// sequence. OriginalSender is set only when attribution fell back to the
// ticket's original submitter; the message then carries a provenance marker
// naming the actual sending address.
type ReplyRecord struct {
	ID             string             `json:"id"`
	AuthorID       string             `json:"authorId"`
	AuthorName     string             `json:"authorName"`
	AuthorEmail    string             `json:"authorEmail"`
	Message        string             `json:"message"`
	Attachments    []StoredAttachment `json:"attachments"`
	CreatedAt      time.Time          `json:"createdAt"`
	IsPrivate      bool               `json:"isPrivate"`
	Source         string             `json:"source"`
	OriginalSender string             `json:"originalSender,omitempty"`
}
