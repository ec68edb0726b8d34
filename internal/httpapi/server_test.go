package httpapi_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaysms/email-gateway/internal/httpapi"
	"github.com/relaysms/email-gateway/pkg/relay"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubService records calls and returns a canned result.
type stubService struct {
	lastReq *relay.SendRequest
	result  relay.Result
	calls   int
	panics  bool
}

func (s *stubService) Send(_ context.Context, req *relay.SendRequest) relay.Result {
	if s.panics {
		panic("boom")
	}
	s.calls++
	s.lastReq = req
	return s.result
}

func newTestServer(t *testing.T, svc httpapi.SendService) http.Handler {
	t.Helper()
	srv := httpapi.New(httpapi.Options{
		APIKey:      "gateway-secret",
		TemplateDir: t.TempDir(),
	}, svc, discardLogger())
	return srv.Handler()
}

func doSend(handler http.Handler, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/send", strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	svc := &stubService{result: relay.Result{Success: true, Message: "Email sent successfully at 2026-08-30 12:00:00"}}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer gateway-secret", `{
		"from_email": "a@x.com",
		"to_email": "b@y.com",
		"subject": "Hi",
		"body": "hello"
	}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success": true, "message": "Email sent successfully at 2026-08-30 12:00:00"}`, rr.Body.String())
	assert.Equal(t, 1, svc.calls)
	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "a@x.com", svc.lastReq.FromEmail)
}

func TestSend_RawAPIKeyWithoutBearer(t *testing.T) {
	t.Parallel()

	svc := &stubService{result: relay.Result{Success: true, Message: "ok"}}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "gateway-secret", `{"to_email":"b@y.com","subject":"Hi","body":"x","from_email":"a@x.com"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, svc.calls)
}

func TestSend_BusinessFailureIsHTTP200(t *testing.T) {
	t.Parallel()

	svc := &stubService{result: relay.Result{Success: false, Message: "No SMTP configuration found for gh***@x.com"}}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer gateway-secret", `{"to_email":"b@y.com","subject":"Hi","body":"x","from_email":"ghost@x.com"}`)

	// Business failures travel in the result envelope, not as HTTP errors.
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success": false, "message": "No SMTP configuration found for gh***@x.com"}`, rr.Body.String())
}

func TestSend_MissingAuthorization(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "Missing Authorization header"}`, rr.Body.String())
	assert.Equal(t, 0, svc.calls)
}

func TestSend_InvalidAPIKey(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer wrong", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "Invalid API key"}`, rr.Body.String())
	assert.Equal(t, 0, svc.calls)
}

func TestSend_MalformedBody(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer gateway-secret", `{"to_email": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "body, malformed JSON")
	assert.Equal(t, 0, svc.calls)
}

func TestSend_WrongFieldType(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer gateway-secret", `{"to_email": 42}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "to_email")
	assert.Equal(t, 0, svc.calls)
}

func TestSend_EmptyBody(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer gateway-secret", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "request body is required")
}

func TestSend_PanicBecomesGeneric500(t *testing.T) {
	t.Parallel()

	svc := &stubService{panics: true}
	handler := newTestServer(t, svc)

	rr := doSend(handler, "Bearer gateway-secret", `{"to_email":"b@y.com","subject":"Hi","body":"x","from_email":"a@x.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error": "Oops! Something went wrong. Please try again later."}`, rr.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &stubService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReadiness_MissingTemplateDir(t *testing.T) {
	t.Parallel()

	srv := httpapi.New(httpapi.Options{
		APIKey:      "gateway-secret",
		TemplateDir: "/nonexistent/templates",
	}, &stubService{}, discardLogger())
	handler := srv.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &stubService{})
	for _, path := range []string{"/healthz", "/garbage/one", "/garbage/two"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "email_gateway_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" {
					assert.NotContains(t, lp.GetValue(), "/garbage/")
				}
			}
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &stubService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "upstream-id", rr.Header().Get("X-Request-ID"))
}
