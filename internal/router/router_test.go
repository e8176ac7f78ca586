package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/database"
	"github.com/graphconnect/graphconnect/internal/graph"
	"github.com/graphconnect/graphconnect/internal/handler"
	"github.com/graphconnect/graphconnect/internal/logger"
	"github.com/graphconnect/graphconnect/internal/middleware"
	"github.com/graphconnect/graphconnect/internal/service"
	"github.com/graphconnect/graphconnect/internal/validation"
)

type graphCall struct {
	path string
	auth string
	body graph.MessageWrapper
}

// fakeGraph records sendMail calls and answers with the configured status.
// With drop set it closes the connection without answering.
type fakeGraph struct {
	mu     sync.Mutex
	calls  []graphCall
	status int
	body   string
	drop   bool
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var msg graph.MessageWrapper
	_ = json.Unmarshal(data, &msg)

	f.mu.Lock()
	f.calls = append(f.calls, graphCall{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: msg})
	f.mu.Unlock()

	if f.drop {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
		return
	}

	w.WriteHeader(f.status)
	w.Write([]byte(f.body))
}

const sendKey = "send-key"

func setupRouter(t *testing.T, fg *fakeGraph, cfg *config.Config) http.Handler {
	t.Helper()
	return setupRouterWithRedis(t, fg, cfg, nil)
}

func setupRouterWithRedis(t *testing.T, fg *fakeGraph, cfg *config.Config, rdb *database.Redis) http.Handler {
	t.Helper()
	graphSrv := httptest.NewServer(fg)
	t.Cleanup(graphSrv.Close)

	cfg.Graph.BaseURL = graphSrv.URL
	cfg.Graph.Timeout = 5 * time.Second

	appToken, err := graph.StaticTokenSource("app-token")
	require.NoError(t, err)
	app := graph.NewControllerWithInterceptor(graphSrv.URL, graph.UserMailbox("noreply@contoso.com"), graph.TokenInterceptor(appToken))

	v, err := validation.New()
	require.NoError(t, err)

	log := logger.Nop()
	mailSvc := service.NewMailService(app, graph.UserMailbox("noreply@contoso.com"),
		service.GraphMailerFactory(cfg.Graph, log), nil, v, log)

	h := handler.New(nil, nil, log, cfg, mailSvc)
	mw := middleware.New(rdb, log, cfg)
	return New(h, mw, middleware.RateLimitConfig{Name: "mail_send", Limit: cfg.RateLimiting.Limit, Window: time.Minute, KeyFn: middleware.IPKey})
}

func doRequest(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func appConfig() *config.Config {
	return &config.Config{Mail: config.MailConfig{APIKey: sendKey}}
}

var withSendKey = map[string]string{"X-API-Key": sendKey}

func TestSendMail_AppCredentials(t *testing.T) {
	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouter(t, fg, appConfig())

	rec := doRequest(r, http.MethodPost, "/api/v1/mail/send",
		`{"to":"a@b.com","subject":"Hi","body":"<p>hello</p>"}`, withSendKey)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	require.Len(t, fg.calls, 1)
	call := fg.calls[0]
	assert.Equal(t, "/users/noreply@contoso.com/sendMail", call.path)
	assert.Equal(t, "Bearer app-token", call.auth)
	assert.Equal(t, graph.NewMailPayload("Hi", "<p>hello</p>", "a@b.com"), call.body)
}

func TestSendMail_AnonymousRejected(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		headers map[string]string
	}{
		{"no key configured", &config.Config{}, nil},
		{"no key configured, key sent", &config.Config{}, map[string]string{"X-API-Key": "anything"}},
		{"key configured, none sent", appConfig(), nil},
		{"key configured, wrong key", appConfig(), map[string]string{"X-API-Key": "guess"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg := &fakeGraph{status: http.StatusAccepted}
			r := setupRouter(t, fg, tt.cfg)

			rec := doRequest(r, http.MethodPost, "/api/v1/mail/send",
				`{"to":"a@b.com","subject":"Hi","body":"x"}`, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "unauthorized")
			assert.Empty(t, fg.calls)
		})
	}
}

func TestSendMail_RateLimitIgnoresForwardedFor(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := appConfig()
	cfg.RateLimiting = config.RateLimitingConfig{Enabled: true, Limit: 1, Window: time.Minute}

	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouterWithRedis(t, fg, cfg, &database.Redis{Client: client})

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		headers := map[string]string{
			"X-API-Key":       sendKey,
			"X-Forwarded-For": "198.51.100." + strconv.Itoa(i+1),
		}
		rec := doRequest(r, http.MethodPost, "/api/v1/mail/send", `{"to":"a@b.com","subject":"Hi"}`, headers)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{202, 429, 429, 429, 429}, codes)
	assert.Len(t, fg.calls, 1)
}

func TestSendMail_DelegatedToken(t *testing.T) {
	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouter(t, fg, &config.Config{})

	rec := doRequest(r, http.MethodPost, "/api/v1/mail/send",
		`{"to":"a@b.com","subject":"Hi","body":"x"}`,
		map[string]string{"Authorization": "Bearer user-opaque-token"})

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, fg.calls, 1)
	assert.Equal(t, "/me/sendMail", fg.calls[0].path)
	assert.Equal(t, "Bearer user-opaque-token", fg.calls[0].auth)
}

func TestSendMail_ValidationError(t *testing.T) {
	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouter(t, fg, appConfig())

	rec := doRequest(r, http.MethodPost, "/api/v1/mail/send", `{"to":"not-an-email","subject":"Hi"}`, withSendKey)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
	assert.Contains(t, rec.Body.String(), `"to"`)
	assert.Empty(t, fg.calls)
}

func TestSendMail_BadJSON(t *testing.T) {
	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouter(t, fg, appConfig())

	rec := doRequest(r, http.MethodPost, "/api/v1/mail/send", `{"to":"a@b.com","cc":"x"}`, withSendKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestSendMail_GraphRejects(t *testing.T) {
	fg := &fakeGraph{
		status: http.StatusBadRequest,
		body:   `{"error":{"code":"ErrorInvalidRecipients","message":"At least one recipient is not valid."}}`,
	}
	r := setupRouter(t, fg, appConfig())

	rec := doRequest(r, http.MethodPost, "/api/v1/mail/send", `{"to":"a@b.com","subject":"Hi"}`, withSendKey)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "ErrorInvalidRecipients")
}

func TestSendMail_GraphAuthFailureIsBadGateway(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		fg := &fakeGraph{
			status: status,
			body:   `{"error":{"code":"ErrorAccessDenied","message":"Access is denied."}}`,
		}
		r := setupRouter(t, fg, appConfig())

		rec := doRequest(r, http.MethodPost, "/api/v1/mail/send", `{"to":"a@b.com","subject":"Hi"}`, withSendKey)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "ErrorAccessDenied")
		assert.Len(t, fg.calls, 1)
	}
}

func TestSendMail_TransportError(t *testing.T) {
	fg := &fakeGraph{drop: true}
	r := setupRouter(t, fg, appConfig())

	rec := doRequest(r, http.MethodPost, "/api/v1/mail/send", `{"to":"a@b.com","subject":"Hi"}`, withSendKey)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph_unavailable")
}

func TestListSentMail_RequiresAPIKey(t *testing.T) {
	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouter(t, fg, &config.Config{Audit: config.AuditConfig{APIKey: "ops"}})

	rec := doRequest(r, http.MethodGet, "/api/v1/mail/sent", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/mail/sent?limit=5", "", map[string]string{"X-API-Key": "ops"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())

	rec = doRequest(r, http.MethodGet, "/api/v1/mail/sent?limit=abc", "", map[string]string{"X-API-Key": "ops"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	fg := &fakeGraph{status: http.StatusAccepted}
	r := setupRouter(t, fg, &config.Config{})

	rec := doRequest(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = doRequest(r, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
