package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symphonyguild/guildsite/internal/pkg/billing"
	"github.com/symphonyguild/guildsite/internal/pkg/features"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/submission"
)

const validSubmission = `{
	"tierId": "family",
	"firstName": "Ann",
	"lastName": "Lee",
	"email": "ann@example.com",
	"phone": "555-123-4567",
	"newsletterOptIn": true
}`

func newMembershipApp(svc *submission.Service) *fiber.App {
	mc := NewMembershipController(svc)
	app := fiber.New()
	app.Get("/api/membership/submit", mc.HandleSubmitInfo)
	app.Post("/api/membership/submit", mc.HandleSubmit)
	app.Get("/api/membership/tiers", mc.HandleTiers)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body, cookie string) (int, map[string]interface{}, *http.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out, resp
}

func fieldsOf(t *testing.T, details interface{}) []string {
	t.Helper()
	list, ok := details.([]interface{})
	require.True(t, ok, "details is %T", details)
	var fields []string
	for _, d := range list {
		fields = append(fields, d.(map[string]interface{})["field"].(string))
	}
	return fields
}

func TestHandleSubmit_Accepted(t *testing.T) {
	t.Parallel()

	store := submission.NewMemoryStore()
	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults(), submission.WithStore(store)))

	status, body, _ := doJSON(t, app, http.MethodPost, "/api/membership/submit", validSubmission, "")
	require.Equal(t, fiber.StatusOK, status, body)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Membership submission received successfully", body["message"])
	assert.Equal(t, true, body["mockMode"])
	assert.Regexp(t, `^OSG-\d+-[0-9A-Z]{7}$`, body["submissionId"])
	assert.Equal(t, map[string]interface{}{"id": "family", "name": "Family Membership", "price": float64(150)}, body["tier"])
	assert.Equal(t, 1, store.Len())
}

func TestHandleSubmit_ValidationFailed(t *testing.T) {
	t.Parallel()

	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults()))

	body := `{"tierId":"family","firstName":"A","lastName":"Lee","email":"not-an-email","phone":"555-123-4567"}`
	status, resp, _ := doJSON(t, app, http.MethodPost, "/api/membership/submit", body, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", resp["error"])
	fields := fieldsOf(t, resp["details"])
	assert.Contains(t, fields, "firstName")
	assert.Contains(t, fields, "email")
	assert.NotContains(t, fields, "lastName")
}

func TestHandleSubmit_InvalidTier(t *testing.T) {
	t.Parallel()

	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults()))

	body := strings.Replace(validSubmission, `"family"`, `"platinum"`, 1)
	status, resp, _ := doJSON(t, app, http.MethodPost, "/api/membership/submit", body, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid membership tier selected", resp["error"])
}

func TestHandleSubmit_SyncUnavailable(t *testing.T) {
	t.Parallel()

	flags := features.Defaults()
	flags.EnableQuickBooksSync = true
	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), flags, submission.WithSyncer(billing.Unsupported{})))

	status, resp, _ := doJSON(t, app, http.MethodPost, "/api/membership/submit", validSubmission, "")
	assert.Equal(t, fiber.StatusNotImplemented, status)
	assert.Equal(t, "Billing sync is not available", resp["error"])
}

func TestHandleSubmit_MalformedBodies(t *testing.T) {
	t.Parallel()

	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults()))

	status, resp, _ := doJSON(t, app, http.MethodPost, "/api/membership/submit", `{"tierId": "family",`, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to process membership submission", resp["error"])

	status, resp, _ = doJSON(t, app, http.MethodPost, "/api/membership/submit", `["family"]`, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to process membership submission", resp["error"])
}

func TestHandleSubmit_WrongTypeReportedWithOtherViolations(t *testing.T) {
	t.Parallel()

	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults()))

	body := `{"tierId":"family","firstName":5,"lastName":"L","email":"bad","phone":"1","address":{"state":7,"zipCode":"123"}}`
	status, resp, _ := doJSON(t, app, http.MethodPost, "/api/membership/submit", body, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", resp["error"])

	details := resp["details"].([]interface{})
	assert.Equal(t, map[string]interface{}{"field": "firstName", "message": "Invalid value"}, details[0])
	assert.ElementsMatch(t,
		[]string{"firstName", "address.state", "lastName", "email", "phone", "address.zipCode"},
		fieldsOf(t, resp["details"]))
}

func TestHandleSubmitInfo(t *testing.T) {
	t.Parallel()

	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults()))

	status, resp, _ := doJSON(t, app, http.MethodGet, "/api/membership/submit", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "/api/membership/submit", resp["endpoint"])
	assert.Equal(t, "POST", resp["method"])
	assert.Equal(t, true, resp["mockMode"])
	assert.Equal(t, false, resp["quickBooksEnabled"])
}

func TestHandleTiers(t *testing.T) {
	t.Parallel()

	app := newMembershipApp(submission.NewService(membership.NewDefaultCatalog(), features.Defaults()))

	status, resp, _ := doJSON(t, app, http.MethodGet, "/api/membership/tiers", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "family", resp["defaultTierId"])

	tiers, ok := resp["tiers"].([]interface{})
	require.True(t, ok)
	require.Len(t, tiers, 4)
	first := tiers[0].(map[string]interface{})
	assert.Equal(t, "individual", first["id"])
	assert.Equal(t, float64(75), first["price"])

	year := resp["membershipYear"].(map[string]interface{})
	assert.Equal(t, "2025-2026", year["current"])
}
