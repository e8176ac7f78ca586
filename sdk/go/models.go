package graphconnect

import "time"

// SendRequest is the body of POST /api/v1/mail/send. Body is sent as HTML.
type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SentMail is one mail audit entry.
type SentMail struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Mailbox   string    `json:"mailbox"`
	SentBy    *string   `json:"sentBy,omitempty"`
	Status    string    `json:"status"`
	ErrorCode *string   `json:"errorCode,omitempty"`
	RequestID *string   `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type listSentResponse struct {
	Items []SentMail `json:"items"`
	Count int        `json:"count"`
}
