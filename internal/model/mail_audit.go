package model

import "time"

// MailAudit records one sendMail attempt
type MailAudit struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Mailbox   string    `json:"mailbox"`
	SentBy    *string   `json:"sentBy,omitempty"`
	Status    string    `json:"status"`
	ErrorCode *string   `json:"errorCode,omitempty"`
	RequestID *string   `json:"requestId,omitempty"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Mail audit status constants
const (
	MailStatusSent   = "sent"
	MailStatusFailed = "failed"
)
