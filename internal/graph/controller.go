package graph

import (
	"context"
	"fmt"

	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/logger"
)

// Controller creates mail messages and hands them to the Graph mail service.
// Messages are sent from the mailbox the service is bound to.
type Controller struct {
	service Service
}

// NewController creates a Controller over an existing service proxy.
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// NewControllerWithInterceptor creates a Controller whose REST service calls
// go through the supplied interceptors. The caller owns authentication.
func NewControllerWithInterceptor(baseURL, mailbox string, interceptors ...Interceptor) *Controller {
	client := NewHTTPClient(DefaultTimeout, interceptors...)
	return NewController(NewRESTService(client, baseURL, mailbox))
}

// NewControllerFromConfig creates a Controller authenticated according to cfg.
func NewControllerFromConfig(ctx context.Context, cfg config.GraphConfig, log *logger.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ts, err := NewTokenSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("graph: failed to create token source: %w", err)
	}

	client := NewHTTPClient(cfg.Timeout, LoggingInterceptor(log), TokenInterceptor(ts))
	return NewController(NewRESTService(client, cfg.BaseURL, MailboxFor(cfg.SenderAddress))), nil
}

// SendMail sends an HTML mail to a single recipient. The error from the
// service is returned as is.
func (c *Controller) SendMail(ctx context.Context, emailAddress, subject, body string) error {
	msg := NewMailPayload(subject, body, emailAddress)
	return c.service.SendMail(ctx, "application/json", msg)
}
