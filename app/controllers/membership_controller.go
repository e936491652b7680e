package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/symphonyguild/guildsite/internal/pkg/billing"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/submission"
)

const (
	membershipSubmitPath = "/api/membership/submit"

	msgValidationFailed  = "Validation failed"
	msgInvalidTier       = "Invalid membership tier selected"
	msgSyncUnavailable   = "Billing sync is not available"
	msgSubmissionFailed  = "Failed to process membership submission"
	msgSubmissionSuccess = "Membership submission received successfully"
)

// MembershipController serves the membership submission API.
type MembershipController struct {
	svc *submission.Service
}

func NewMembershipController(svc *submission.Service) *MembershipController {
	return &MembershipController{svc: svc}
}

// HandleSubmit accepts a membership form posted as JSON.
func (mc *MembershipController) HandleSubmit(c *fiber.Ctx) error {
	res, err := mc.svc.SubmitJSON(c.UserContext(), c.Body())
	if err != nil {
		return submissionError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"submissionId": res.Submission.ID,
		"tier":         res.Tier.Summary(),
		"message":      msgSubmissionSuccess,
		"mockMode":     mc.svc.Flags().MockPaymentMode,
	})
}

// HandleSubmitInfo describes the submission endpoint and the active mode flags.
func (mc *MembershipController) HandleSubmitInfo(c *fiber.Ctx) error {
	flags := mc.svc.Flags()
	return c.JSON(fiber.Map{
		"endpoint":          membershipSubmitPath,
		"method":            fiber.MethodPost,
		"description":       "Submit membership form data",
		"mockMode":          flags.MockPaymentMode,
		"quickBooksEnabled": flags.EnableQuickBooksSync,
	})
}

// HandleTiers lists the membership tiers for the tier selector.
func (mc *MembershipController) HandleTiers(c *fiber.Ctx) error {
	catalog := mc.svc.Catalog()
	return c.JSON(fiber.Map{
		"tiers":          catalog.Tiers(),
		"defaultTierId":  catalog.DefaultTier().ID,
		"membershipYear": mc.svc.Year(),
	})
}

// submissionError maps submission failures to API responses. Internal
// errors are logged and never echoed to the client.
func submissionError(c *fiber.Ctx, err error) error {
	var verrs membership.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   msgValidationFailed,
			"details": verrs,
		})
	case errors.Is(err, submission.ErrInvalidTier):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidTier})
	case errors.Is(err, billing.ErrUnsupported):
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": msgSyncUnavailable})
	default:
		fiberlog.Errorf("[Membership] Submission failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgSubmissionFailed})
	}
}
