package dto

// InboundEmailResponse is returned for every acknowledged provider callback,
// including handled-but-no-op outcomes (handshake, bounce, complaint,
// unknown envelope types).
type InboundEmailResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	TicketID    string `json:"ticketId,omitempty"`
	SenderEmail string `json:"senderEmail,omitempty"`
}
