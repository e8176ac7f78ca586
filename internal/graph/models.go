package graph

// ContentTypeHTML is the body content type used for every outgoing message.
const ContentTypeHTML = "HTML"

// MessageWrapper is the request body of the sendMail action.
type MessageWrapper struct {
	Message Message `json:"message"`
}

// Message represents the subset of the Graph message resource we send.
type Message struct {
	Subject      string      `json:"subject"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
}

// ItemBody holds the content of a message body
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Recipient wraps a single email address
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// EmailAddress holds a recipient address
type EmailAddress struct {
	Address string `json:"address"`
}

// NewMailPayload builds the sendMail body for a single recipient.
// The body is always sent as HTML.
func NewMailPayload(subject, body, address string) MessageWrapper {
	return MessageWrapper{
		Message: Message{
			Subject: subject,
			Body: ItemBody{
				ContentType: ContentTypeHTML,
				Content:     body,
			},
			ToRecipients: []Recipient{
				{EmailAddress: EmailAddress{Address: address}},
			},
		},
	}
}
