package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// MailboxMe addresses the mailbox of the signed-in user.
const MailboxMe = "me"

// Service is the REST proxy for the Graph mail endpoints.
type Service interface {
	// SendMail posts msg to the sendMail action using the given content type.
	SendMail(ctx context.Context, contentType string, msg MessageWrapper) error
}

// RESTService implements Service over an HTTP client. Authentication is the
// responsibility of the client's transport.
type RESTService struct {
	baseURL string
	mailbox string
	client  *http.Client
}

// NewRESTService creates a RESTService. An empty baseURL selects DefaultBaseURL,
// an empty mailbox selects MailboxMe.
func NewRESTService(client *http.Client, baseURL, mailbox string) *RESTService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if mailbox == "" {
		mailbox = MailboxMe
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		mailbox: mailbox,
		client:  client,
	}
}

// UserMailbox returns the mailbox path segment for a specific user.
func UserMailbox(address string) string {
	return "users/" + url.PathEscape(address)
}

// MailboxFor returns the mailbox for a configured sender; empty means MailboxMe.
func MailboxFor(senderAddress string) string {
	if senderAddress == "" {
		return MailboxMe
	}
	return UserMailbox(senderAddress)
}

// SendMail posts the message to {baseURL}/{mailbox}/sendMail.
func (s *RESTService) SendMail(ctx context.Context, contentType string, msg MessageWrapper) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("graph: failed to encode message: %w", err)
	}

	endpoint := s.baseURL + "/" + s.mailbox + "/sendMail"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("graph: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("graph: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("graph: failed to read response: %w", err)
	}
	return parseAPIError(resp.StatusCode, body)
}
