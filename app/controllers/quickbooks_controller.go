package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/symphonyguild/guildsite/internal/pkg/session"
)

const quickBooksOAuthStateSessionKey = "quickbooks_oauth_state"

// QuickBooksAuthorizer is the part of the QuickBooks client needed to connect
// the company account.
type QuickBooksAuthorizer interface {
	IsConfigured() bool
	AuthorizationURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// QuickBooksController runs the OAuth handshake that provides the billing
// client with its first token pair.
type QuickBooksController struct {
	store   *fibersession.Store
	client  QuickBooksAuthorizer
	realmID string
}

func NewQuickBooksController(store *fibersession.Store, client QuickBooksAuthorizer, realmID string) *QuickBooksController {
	return &QuickBooksController{store: store, client: client, realmID: realmID}
}

// HandleConnect redirects to the Intuit consent page.
func (qc *QuickBooksController) HandleConnect(c *fiber.Ctx) error {
	if qc.client == nil || !qc.client.IsConfigured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "QuickBooks is not configured"})
	}

	state := uuid.NewString()
	if err := session.SetSessionValue(qc.store, c, quickBooksOAuthStateSessionKey, state); err != nil {
		fiberlog.Errorf("[QuickBooks] Failed to store oauth state: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Session could not be saved"})
	}

	url, err := qc.client.AuthorizationURL(state)
	if err != nil {
		fiberlog.Errorf("[QuickBooks] Failed to build authorization url: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "QuickBooks is not configured"})
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleCallback verifies the state and stores the tokens for the realm.
func (qc *QuickBooksController) HandleCallback(c *fiber.Ctx) error {
	if qc.client == nil || !qc.client.IsConfigured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "QuickBooks is not configured"})
	}

	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		fiberlog.Warnf("[QuickBooks] Authorization denied: %s", oauthErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "QuickBooks authorization failed: " + oauthErr})
	}

	expectedState := session.GetSessionValue(qc.store, c, quickBooksOAuthStateSessionKey)
	if err := session.DeleteSessionValue(qc.store, c, quickBooksOAuthStateSessionKey); err != nil {
		fiberlog.Warnf("[QuickBooks] Failed to clear oauth state: %v", err)
	}
	gotState := strings.TrimSpace(c.Query("state"))
	if expectedState == "" || gotState == "" || expectedState != gotState {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid OAuth state"})
	}

	if realmID := strings.TrimSpace(c.Query("realmId")); realmID != "" && realmID != qc.realmID {
		fiberlog.Warnf("[QuickBooks] Callback for unexpected realm %s", realmID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unexpected QuickBooks company"})
	}

	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "OAuth code is missing"})
	}

	if _, err := qc.client.ExchangeCode(c.UserContext(), code); err != nil {
		fiberlog.Errorf("[QuickBooks] Token exchange failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "QuickBooks token exchange failed"})
	}

	fiberlog.Infof("[QuickBooks] Connected realm %s", qc.realmID)
	return c.JSON(fiber.Map{"success": true, "realmId": qc.realmID})
}
