package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/graphconnect/graphconnect/internal/auth"
	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/graph"
	"github.com/graphconnect/graphconnect/internal/logger"
	"github.com/graphconnect/graphconnect/internal/model"
	"github.com/graphconnect/graphconnect/internal/validation"
)

// Mail service errors
var (
	ErrNoCredentials = errors.New("no Graph credentials available for sending")
	ErrInvalidToken  = errors.New("the supplied access token is invalid or expired")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Mailer sends a single HTML mail. Implemented by *graph.Controller.
type Mailer interface {
	SendMail(ctx context.Context, emailAddress, subject, body string) error
}

// MailerFactory builds a Mailer bound to a caller-supplied access token.
type MailerFactory func(accessToken string) (Mailer, error)

// AuditStore persists mail audit entries. Implemented by *repository.MailAuditRepository.
type AuditStore interface {
	Create(ctx context.Context, entry *model.MailAudit) error
	ListRecent(ctx context.Context, limit int) ([]model.MailAudit, error)
}

// SendRequest is a request to send one mail
type SendRequest struct {
	To      string `json:"to" validate:"required,email,max=320"`
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"max=3145728"`
}

// SendMeta carries request context used for delegation and auditing
type SendMeta struct {
	RequestID   string
	IPAddress   string
	AccessToken string
}

// MailService sends mail through Graph and keeps an audit trail.
type MailService struct {
	app        Mailer
	appMailbox string
	delegated  MailerFactory
	audit      AuditStore
	validator  *validation.Validator
	log        *logger.Logger
	now        func() time.Time
}

// NewMailService creates a new MailService. app may be nil when the service
// only sends on behalf of callers; audit may be nil to disable auditing.
func NewMailService(app Mailer, appMailbox string, delegated MailerFactory, audit AuditStore, v *validation.Validator, log *logger.Logger) *MailService {
	return &MailService{
		app:        app,
		appMailbox: appMailbox,
		delegated:  delegated,
		audit:      audit,
		validator:  v,
		log:        log.WithComponent("mail"),
		now:        time.Now,
	}
}

// GraphMailerFactory returns a MailerFactory creating controllers that send
// from the signed-in user's mailbox with the forwarded token.
func GraphMailerFactory(cfg config.GraphConfig, log *logger.Logger) MailerFactory {
	return func(accessToken string) (Mailer, error) {
		ts, err := graph.StaticTokenSource(accessToken)
		if err != nil {
			return nil, err
		}
		client := graph.NewHTTPClient(cfg.Timeout, graph.LoggingInterceptor(log), graph.TokenInterceptor(ts))
		return graph.NewController(graph.NewRESTService(client, cfg.BaseURL, graph.MailboxMe)), nil
	}
}

// Send validates req and sends it. A caller token in meta takes precedence
// over the application credentials.
func (s *MailService) Send(ctx context.Context, req SendRequest, meta SendMeta) error {
	req.To = strings.TrimSpace(req.To)
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	log := s.log.WithRequestID(meta.RequestID)

	mailer, mailbox, sentBy, err := s.resolveMailer(meta.AccessToken)
	if err != nil {
		log.Debug().Err(err).Msg("no mailer for request")
		return err
	}

	start := s.now()
	sendErr := mailer.SendMail(ctx, req.To, req.Subject, req.Body)
	log.MailSent(req.To, mailbox, time.Since(start), sendErr)

	s.record(ctx, log, req, meta, mailbox, sentBy, sendErr)

	if sendErr != nil {
		return fmt.Errorf("failed to send mail: %w", sendErr)
	}
	return nil
}

func (s *MailService) resolveMailer(accessToken string) (Mailer, string, string, error) {
	if accessToken != "" {
		// Consumer account tokens are opaque, so only an expired JWT is rejected here.
		var sentBy string
		claims, err := auth.InspectGraphToken(accessToken, s.now())
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			return nil, "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		case err == nil:
			sentBy = claims.Principal()
		}
		if s.delegated == nil {
			return nil, "", "", ErrNoCredentials
		}
		mailer, err := s.delegated(accessToken)
		if err != nil {
			return nil, "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return mailer, graph.MailboxMe, sentBy, nil
	}

	if s.app == nil {
		return nil, "", "", ErrNoCredentials
	}
	return s.app, s.appMailbox, "", nil
}

// record stores the audit entry. Failures are logged only.
func (s *MailService) record(ctx context.Context, log *logger.Logger, req SendRequest, meta SendMeta, mailbox, sentBy string, sendErr error) {
	if s.audit == nil {
		return
	}

	entry := &model.MailAudit{
		ID:        uuid.New().String(),
		Recipient: req.To,
		Subject:   req.Subject,
		Mailbox:   mailbox,
		SentBy:    optional(sentBy),
		Status:    model.MailStatusSent,
		RequestID: optional(meta.RequestID),
		IPAddress: optional(meta.IPAddress),
		CreatedAt: s.now().UTC(),
	}
	if sendErr != nil {
		entry.Status = model.MailStatusFailed
		code := "transport_error"
		if apiErr, ok := graph.IsAPIError(sendErr); ok {
			code = apiErr.Code
		}
		entry.ErrorCode = &code
	}

	if err := s.audit.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("recipient", req.To).Msg("failed to record mail audit")
	}
}

// ListRecent returns recent audit entries. limit is clamped to [1, MaxListLimit].
func (s *MailService) ListRecent(ctx context.Context, limit int) ([]model.MailAudit, error) {
	if s.audit == nil {
		return []model.MailAudit{}, nil
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.audit.ListRecent(ctx, limit)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
