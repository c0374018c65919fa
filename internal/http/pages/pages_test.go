package pages

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/websecdemo/internal/cookie"
	"github.com/dropDatabas3/websecdemo/internal/ledger"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

func TestNew_ParsesEveryPage(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	for _, name := range all {
		rec := httptest.NewRecorder()
		require.NoError(t, r.Render(rec, http.StatusOK, name, Data{Title: name}), name)
		assert.Contains(t, rec.Body.String(), "<title>", name)
	}
}

func TestRender_UnknownPageWritesNothing(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.Error(t, r.Render(rec, http.StatusOK, "nope.html", Data{}))
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestRender_StatusAndEscaping(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusForbidden, TransferResult, Data{
		Rejected:  true,
		Reason:    "missing or wrong CSRF token.",
		RawAmount: "<b>1</b>",
		Presented: "nincs-token",
	}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;1&lt;/b&gt;")
	assert.Contains(t, rec.Body.String(), "nincs-token")

	rec = httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, XSS, Data{Unsafe: true, RawHTML: template.HTML("<i>x</i>")}))
	assert.Contains(t, rec.Body.String(), "<i>x</i>")
}

func TestRender_Receipt(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, TransferResult, Data{
		Receipt: ledger.Receipt{Amount: 1000, Before: 10000, After: 9000},
	}))
	assert.Contains(t, rec.Body.String(), "9000")
}

func TestViewOf_HidesIDAndToken(t *testing.T) {
	t.Parallel()

	st := session.State{Authenticated: true, Username: "demo", Balance: 5, CSRFToken: "secret-token", SameSite: cookie.Strict}
	v := ViewOf("raw-session-id", st)

	assert.NotEqual(t, "raw-session-id", v.Fingerprint)
	assert.NotEmpty(t, v.Fingerprint)
	assert.True(t, v.HasToken)
	assert.Equal(t, "Strict", v.SameSite)
}

func TestModeCards(t *testing.T) {
	t.Parallel()

	cards := ModeCards("sessionid")
	require.Len(t, cards, 3)
	for _, c := range cards {
		assert.Contains(t, c.Header, "sessionid=")
		assert.Contains(t, c.Header, "SameSite="+c.Name)
		assert.Equal(t, c.Name == "None", c.Secure)
		assert.NotEmpty(t, c.Note)
	}
}
