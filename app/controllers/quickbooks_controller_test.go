package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/symphonyguild/guildsite/internal/pkg/session"
)

type fakeAuthorizer struct {
	configured  bool
	exchangeErr error
	codes       []string
}

func (f *fakeAuthorizer) IsConfigured() bool { return f.configured }

func (f *fakeAuthorizer) AuthorizationURL(state string) (string, error) {
	return "https://appcenter.example.com/connect?state=" + url.QueryEscape(state), nil
}

func (f *fakeAuthorizer) ExchangeCode(_ context.Context, code string) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access"}, nil
}

func newQuickBooksApp(client QuickBooksAuthorizer) *fiber.App {
	qc := NewQuickBooksController(session.NewMemorySessionStore(), client, "4620816365")
	app := fiber.New()
	app.Get("/api/quickbooks/connect", qc.HandleConnect)
	app.Get("/api/quickbooks/callback", qc.HandleCallback)
	return app
}

// connect starts the handshake and returns the session cookie and state.
func connect(t *testing.T, app *fiber.App) (string, string) {
	t.Helper()
	status, _, resp := doJSON(t, app, http.MethodGet, "/api/quickbooks/connect", "", "")
	require.Equal(t, fiber.StatusSeeOther, status)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return cookieFrom(t, resp), state
}

func TestQuickBooks_NotConfigured(t *testing.T) {
	t.Parallel()

	app := newQuickBooksApp(&fakeAuthorizer{})
	status, body, _ := doJSON(t, app, http.MethodGet, "/api/quickbooks/connect", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "QuickBooks is not configured", body["error"])

	status, _, _ = doJSON(t, app, http.MethodGet, "/api/quickbooks/callback?code=abc&state=x", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _, _ = doJSON(t, newQuickBooksApp(nil), http.MethodGet, "/api/quickbooks/connect", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestQuickBooks_Handshake(t *testing.T) {
	t.Parallel()

	client := &fakeAuthorizer{configured: true}
	app := newQuickBooksApp(client)
	cookie, state := connect(t, app)

	status, body, _ := doJSON(t, app, http.MethodGet, "/api/quickbooks/callback?code=abc&realmId=4620816365&state="+url.QueryEscape(state), "", cookie)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"abc"}, client.codes)

	// the state is single use
	status, _, _ = doJSON(t, app, http.MethodGet, "/api/quickbooks/callback?code=abc&state="+url.QueryEscape(state), "", cookie)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Len(t, client.codes, 1)
}

func TestQuickBooks_CallbackRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  func(state string) string
		status int
	}{
		{name: "state mismatch", query: func(string) string { return "code=abc&state=forged" }, status: fiber.StatusBadRequest},
		{name: "missing code", query: func(s string) string { return "state=" + url.QueryEscape(s) }, status: fiber.StatusBadRequest},
		{name: "other realm", query: func(s string) string { return "code=abc&realmId=1&state=" + url.QueryEscape(s) }, status: fiber.StatusBadRequest},
		{name: "denied", query: func(string) string { return "error=access_denied" }, status: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeAuthorizer{configured: true}
			app := newQuickBooksApp(client)
			cookie, state := connect(t, app)

			status, _, _ := doJSON(t, app, http.MethodGet, "/api/quickbooks/callback?"+tt.query(state), "", cookie)
			assert.Equal(t, tt.status, status)
			assert.Empty(t, client.codes)
		})
	}
}

func TestQuickBooks_ExchangeFailure(t *testing.T) {
	t.Parallel()

	client := &fakeAuthorizer{configured: true, exchangeErr: errors.New("invalid_grant")}
	app := newQuickBooksApp(client)
	cookie, state := connect(t, app)

	status, body, _ := doJSON(t, app, http.MethodGet, "/api/quickbooks/callback?code=abc&state="+url.QueryEscape(state), "", cookie)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "QuickBooks token exchange failed", body["error"])
}
