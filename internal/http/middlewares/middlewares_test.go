package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/csrf"
	"github.com/dropDatabas3/websecdemo/internal/metrics"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
	"github.com/dropDatabas3/websecdemo/internal/rate"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var trace []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(ok, mark("A"), mark("B"), mark("C"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"A", "B", "C"}, trace)
}

func TestChainAndFuncs_SkipNil(t *testing.T) {
	t.Parallel()

	hits := 0
	count := Middleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	})
	h := Chain(http.NotFoundHandler(), nil, count, nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1, hits)

	assert.Len(t, Funcs(nil, count, WithNoStore(), nil), 2)
}

func TestWithRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestWithRecover(t *testing.T) {
	t.Parallel()

	h := WithRecover()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/private", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cookies", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestWithSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WithSecurityHeaders("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/api/public", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	WithSecurityHeaders(APIContentSecurityPolicy)(ok).ServeHTTP(rec, req)
	assert.Equal(t, APIContentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestWithSession_CreatesThenReuses(t *testing.T) {
	t.Parallel()

	store := session.NewStore()
	var got *session.Session
	h := WithSession(store, "sessionid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = MustGetSession(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)

	setCookie := rec.Header().Get("Set-Cookie")
	assert.Equal(t, "sessionid="+got.ID()+"; Path=/; HttpOnly; SameSite=Lax", setCookie)
	first := got

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: first.ID()})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Same(t, first, got)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
	assert.Equal(t, 1, store.Len())
}

func TestWithSession_ForgedIDGetsFreshSession(t *testing.T) {
	t.Parallel()

	store := session.NewStore()
	var got *session.Session
	h := WithSession(store, "sessionid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "attacker-chosen"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.NotEqual(t, "attacker-chosen", got.ID())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), got.ID())
}

func TestWithSession_GeneratorFailureIs503(t *testing.T) {
	t.Parallel()

	store := session.NewStore(session.WithIDGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))
	rec := httptest.NewRecorder()
	WithSession(store, "sessionid")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestRequireLogin(t *testing.T) {
	t.Parallel()

	gate := auth.NewGate(csrf.NewManager(), "", nil)
	sess, _, err := session.NewStore().Resolve("")
	require.NoError(t, err)

	h := RequireLogin(gate)(ok)
	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req = req.WithContext(WithSessionContext(req.Context(), sess))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "please log in")

	_, err = gate.Login(context.Background(), sess)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// sin WithSession delante
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, errors.New("redis down")
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	h := WithRateLimit(rate.NewMemoryLimiter(2, time.Hour), nil)(ok)
	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestWithRateLimit_FailsOpen(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WithRateLimit(failingLimiter{}, IPPathRateKey)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	WithRateLimit(nil, nil)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWithMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	WithMetrics(m)(notFound).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	WithMetrics(m)(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotPanics(t, func() {
		WithMetrics(nil)(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	n, err := testutil.GatherAndCount(reg, "websec_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWithLogging_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	forbidden := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.From(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusForbidden)
	})
	req := httptest.NewRequest(http.MethodPost, "/do-transfer-safe", nil)
	req.Header.Set("Origin", "http://localhost:8001")
	Chain(forbidden, WithRequestID(), WithLogging()).ServeHTTP(httptest.NewRecorder(), req)

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "http://localhost:8001", inside[0].ContextMap()["origin"])
	assert.NotEmpty(t, inside[0].ContextMap()["request_id"])

	assert.Equal(t, true, inside[0].ContextMap()["cross_origin"])

	done := logs.FilterMessage("request completed").All()
	require.Len(t, done, 1)
	assert.Equal(t, zapcore.WarnLevel, done[0].Level)
	assert.EqualValues(t, 403, done[0].ContextMap()["status"])
}

func TestLevelForAndCrossOrigin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.InfoLevel, levelFor(200))
	assert.Equal(t, zapcore.InfoLevel, levelFor(303))
	assert.Equal(t, zapcore.WarnLevel, levelFor(401))
	assert.Equal(t, zapcore.ErrorLevel, levelFor(503))

	assert.False(t, crossOrigin("http://localhost:8000", "localhost:8000"))
	assert.True(t, crossOrigin("http://localhost:8001", "localhost:8000"))
	assert.True(t, crossOrigin("null", "localhost:8000"))
}

func TestStatusRecorder_ImplicitOK(t *testing.T) {
	t.Parallel()

	sr := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, sr.code())
	_, _ = sr.Write([]byte("hi"))
	sr.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, sr.code())
	assert.Equal(t, 2, sr.bytes)
}
