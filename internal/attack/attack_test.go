package attack_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/websecdemo/internal/app"
	"github.com/dropDatabas3/websecdemo/internal/attack"
	"github.com/dropDatabas3/websecdemo/internal/config"
)

func newTarget(t *testing.T) *httptest.Server {
	t.Helper()
	c, err := app.New(context.Background(), config.Default())
	require.NoError(t, err)
	srv := httptest.NewServer(c.AppHandler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_FullScript(t *testing.T) {
	t.Parallel()

	srv := newTarget(t)
	r, err := attack.New(srv.URL, attack.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Steps, 5)
	assert.True(t, rep.OK(), "%+v", rep.Steps)

	byName := map[string]attack.Step{}
	for _, s := range rep.Steps {
		byName[s.Name] = s
	}

	fresh := byName["fresh-transfer"]
	assert.Equal(t, http.StatusUnauthorized, fresh.Status)
	assert.Equal(t, fresh.Before, fresh.After)

	vuln := byName["csrf-vulnerable"]
	assert.Equal(t, int64(10000), vuln.Before)
	assert.Equal(t, int64(1), vuln.After)

	forged := byName["csrf-forged-token"]
	assert.Equal(t, http.StatusForbidden, forged.Status)
	assert.Equal(t, forged.Before, forged.After)

	// saldo 1: el monto legítimo deja la cuenta en 0
	legit := byName["legit-with-token"]
	assert.Equal(t, int64(1), legit.Before)
	assert.Equal(t, int64(0), legit.After)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteTable(&buf))
	assert.Contains(t, buf.String(), "csrf-forged-token")
	assert.NotContains(t, buf.String(), "UNEXPECTED")
}

func TestNew_RejectsBadTargets(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"", "localhost:8000", "ftp://x", "http://"} {
		_, err := attack.New(target)
		assert.Error(t, err, "target %q", target)
	}
}

func TestRun_NoTokenInPage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":10}`))
	})
	mux.HandleFunc("/csrf-protected", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<form></form>`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r, err := attack.New(srv.URL)
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, attack.ErrNoToken)
}

func TestReport_NotOKOnMismatch(t *testing.T) {
	t.Parallel()

	rep := attack.Report{Steps: []attack.Step{{Name: "x", Want: 200, Status: 403}}}
	assert.False(t, rep.OK())

	var buf bytes.Buffer
	require.NoError(t, rep.WriteTable(&buf))
	assert.Contains(t, buf.String(), "UNEXPECTED")
}
