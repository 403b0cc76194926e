package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
	"github.com/Davshiv20/PingPollz/internal/store"
)

// codeFor maps service and store errors to wire error codes.
func codeFor(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidName):
		return model.CodeInvalidName
	case errors.Is(err, service.ErrEmptyQuestion),
		errors.Is(err, service.ErrTooFewOptions),
		errors.Is(err, service.ErrNonPositiveDuration),
		errors.Is(err, service.ErrCorrectFlagsMismatch),
		errors.Is(err, service.ErrEmptySender),
		errors.Is(err, service.ErrEmptyBody):
		return model.CodeValidation
	case errors.Is(err, store.ErrActivePollExists):
		return model.CodeAlreadyActive
	case errors.Is(err, store.ErrNoActivePoll):
		return model.CodeNoActivePoll
	case errors.Is(err, store.ErrPollMismatch):
		return model.CodePollMismatch
	case errors.Is(err, store.ErrUnknownParticipant):
		return model.CodeUnknownParticipant
	case errors.Is(err, store.ErrUnknownOption):
		return model.CodeUnknownOption
	case errors.Is(err, store.ErrAlreadyAnswered):
		return model.CodeAlreadyAnswered
	default:
		return ""
	}
}

// respondError writes the JSON error shape for REST callers. Validation maps
// to 400, conflicts to 409, stale references to 404, anything unrecognized
// to 500.
func respondError(c *fiber.Ctx, err error) error {
	code := codeFor(err)
	status := 500
	switch code {
	case model.CodeInvalidName, model.CodeValidation, model.CodeUnknownOption:
		status = 400
	case model.CodeAlreadyActive, model.CodeNoActivePoll, model.CodePollMismatch, model.CodeAlreadyAnswered:
		status = 409
	case model.CodeUnknownParticipant:
		status = 404
	}
	if code == "" {
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}
