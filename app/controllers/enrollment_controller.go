package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/symphonyguild/guildsite/internal/pkg/enrollment"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/session"
)

const enrollmentSessionKey = "membership_enrollment"

// EnrollmentController drives the multi-step membership wizard. The workflow
// lives in the visitor's session between requests.
type EnrollmentController struct {
	store   *fibersession.Store
	catalog *membership.Catalog
	payment enrollment.PaymentStep
}

func NewEnrollmentController(store *fibersession.Store, catalog *membership.Catalog, payment enrollment.PaymentStep) *EnrollmentController {
	return &EnrollmentController{store: store, catalog: catalog, payment: payment}
}

type selectTierRequest struct {
	TierID string `json:"tierId"`
}

type setFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// HandleState returns the current wizard, creating one when the session has none.
func (ec *EnrollmentController) HandleState(c *fiber.Ctx) error {
	w, err := ec.load(c)
	if err != nil {
		return sessionError(c, err)
	}
	return ec.respond(c, fiber.StatusOK, w)
}

// HandleSelectTier changes the selected tier on the first step.
func (ec *EnrollmentController) HandleSelectTier(c *fiber.Ctx) error {
	var req selectTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if _, ok := ec.catalog.Tier(req.TierID); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidTier})
	}

	return ec.apply(c, func(w *enrollment.Workflow) error {
		return w.SelectTier(req.TierID)
	})
}

// HandleSetFields stores one or more form values. A rejected value leaves the
// form as it was.
func (ec *EnrollmentController) HandleSetFields(c *fiber.Ctx) error {
	var req setFieldsRequest
	if err := c.BodyParser(&req); err != nil || len(req.Fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	return ec.apply(c, func(w *enrollment.Workflow) error {
		return w.SetFields(req.Fields)
	})
}

func (ec *EnrollmentController) HandleNext(c *fiber.Ctx) error {
	return ec.apply(c, func(w *enrollment.Workflow) error { return w.Next() })
}

func (ec *EnrollmentController) HandleBack(c *fiber.Ctx) error {
	return ec.apply(c, func(w *enrollment.Workflow) error { return w.Back() })
}

// HandlePayment runs the payment step. Billing and storage failures are
// reported like a direct submission.
func (ec *EnrollmentController) HandlePayment(c *fiber.Ctx) error {
	w, err := ec.load(c)
	if err != nil {
		return sessionError(c, err)
	}

	if err := w.CompletePayment(c.UserContext(), ec.payment); err != nil {
		if errors.Is(err, enrollment.ErrInvalidTransition) {
			return ec.respondError(c, fiber.StatusConflict, err.Error(), w)
		}
		return submissionError(c, err)
	}
	if err := ec.save(c, w); err != nil {
		return sessionError(c, err)
	}

	fiberlog.Infof("[Enrollment] Completed enrollment %s", w.SubmissionID)
	return ec.respond(c, fiber.StatusOK, w)
}

// HandleReset discards the wizard so the next request starts over.
func (ec *EnrollmentController) HandleReset(c *fiber.Ctx) error {
	if err := session.DeleteSessionValue(ec.store, c, enrollmentSessionKey); err != nil {
		fiberlog.Errorf("[Enrollment] Failed to reset session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset enrollment"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// apply loads the workflow, runs fn and persists the result. Validation
// failures are persisted too so the field errors survive a reload.
func (ec *EnrollmentController) apply(c *fiber.Ctx, fn func(*enrollment.Workflow) error) error {
	w, err := ec.load(c)
	if err != nil {
		return sessionError(c, err)
	}

	fnErr := fn(w)
	var verrs membership.ValidationErrors
	if fnErr != nil && !errors.As(fnErr, &verrs) {
		switch {
		case errors.Is(fnErr, enrollment.ErrInvalidTransition):
			return ec.respondError(c, fiber.StatusConflict, fnErr.Error(), w)
		default:
			return ec.respondError(c, fiber.StatusBadRequest, fnErr.Error(), w)
		}
	}

	if err := ec.save(c, w); err != nil {
		return sessionError(c, err)
	}
	if fnErr != nil {
		return ec.respondError(c, fiber.StatusBadRequest, msgValidationFailed, w)
	}
	return ec.respond(c, fiber.StatusOK, w)
}

func (ec *EnrollmentController) load(c *fiber.Ctx) (*enrollment.Workflow, error) {
	if raw := session.GetSessionValue(ec.store, c, enrollmentSessionKey); raw != "" {
		w, err := enrollment.Decode([]byte(raw))
		if err == nil {
			return w, nil
		}
		fiberlog.Warnf("[Enrollment] Discarding unreadable session state: %v", err)
	}

	tierID := ec.catalog.DefaultTier().ID
	if requested := c.Query("tier"); requested != "" {
		if _, ok := ec.catalog.Tier(requested); ok {
			tierID = requested
		}
	}
	w := enrollment.New(tierID)
	if err := ec.save(c, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (ec *EnrollmentController) save(c *fiber.Ctx, w *enrollment.Workflow) error {
	raw, err := w.Encode()
	if err != nil {
		return err
	}
	return session.SetSessionValue(ec.store, c, enrollmentSessionKey, string(raw))
}

func sessionError(c *fiber.Ctx, err error) error {
	fiberlog.Errorf("[Enrollment] Failed to save session: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save enrollment"})
}

func (ec *EnrollmentController) respond(c *fiber.Ctx, status int, w *enrollment.Workflow) error {
	return c.Status(status).JSON(fiber.Map{"enrollment": ec.view(w)})
}

func (ec *EnrollmentController) respondError(c *fiber.Ctx, status int, msg string, w *enrollment.Workflow) error {
	return c.Status(status).JSON(fiber.Map{
		"error":      msg,
		"details":    w.Errors,
		"enrollment": ec.view(w),
	})
}

func (ec *EnrollmentController) view(w *enrollment.Workflow) fiber.Map {
	v := fiber.Map{
		"step":   w.Step,
		"form":   w.Form,
		"errors": w.Errors,
	}
	if tier, ok := ec.catalog.Tier(w.Form.TierID); ok {
		v["tier"] = tier.Summary()
	}
	if w.SubmissionID != "" {
		v["submissionId"] = w.SubmissionID
	}
	return v
}
