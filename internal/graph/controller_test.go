package graph

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/logger"
)

type fakeService struct {
	contentType string
	msg         MessageWrapper
	calls       int
	err         error
}

func (f *fakeService) SendMail(ctx context.Context, contentType string, msg MessageWrapper) error {
	f.calls++
	f.contentType = contentType
	f.msg = msg
	return f.err
}

func TestController_SendMail(t *testing.T) {
	svc := &fakeService{}
	ctrl := NewController(svc)

	err := ctrl.SendMail(context.Background(), "a@b.com", "Hi", "<p>hello</p>")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "application/json", svc.contentType)
	assert.Equal(t, NewMailPayload("Hi", "<p>hello</p>", "a@b.com"), svc.msg)
}

func TestController_SendMailReturnsServiceError(t *testing.T) {
	want := errors.New("boom")
	ctrl := NewController(&fakeService{err: want})

	err := ctrl.SendMail(context.Background(), "a@b.com", "Hi", "body")
	assert.Same(t, want, err)
}

func TestNewControllerWithInterceptor(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusAccepted, "")

	ts, err := StaticTokenSource("delegated-token")
	require.NoError(t, err)

	ctrl := NewControllerWithInterceptor(srv.URL, MailboxMe, TokenInterceptor(ts))
	require.NoError(t, ctrl.SendMail(context.Background(), "a@b.com", "Hi", "<p>hello</p>"))

	assert.Equal(t, "Bearer delegated-token", captured.auth)
	assert.Equal(t, "/me/sendMail", captured.path)
	assert.Equal(t, "Hi", captured.body.Message.Subject)
}

func TestNewControllerFromConfig_Static(t *testing.T) {
	srv, captured := newGraphServer(t, http.StatusAccepted, "")

	cfg := config.GraphConfig{
		BaseURL:       srv.URL,
		AuthMode:      config.AuthModeStatic,
		AccessToken:   "static-token",
		SenderAddress: "noreply@contoso.com",
	}
	ctrl, err := NewControllerFromConfig(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, ctrl.SendMail(context.Background(), "a@b.com", "Hi", "body"))
	assert.Equal(t, "Bearer static-token", captured.auth)
	assert.Equal(t, "/users/noreply@contoso.com/sendMail", captured.path)
}

func TestNewControllerFromConfig_Invalid(t *testing.T) {
	_, err := NewControllerFromConfig(context.Background(), config.GraphConfig{AuthMode: config.AuthModeStatic}, logger.Nop())
	assert.Error(t, err)
}
