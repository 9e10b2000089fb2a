package serverutils

import (
	"errors"

	"chatbots-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

// WriteError renders err with the status derived from its kind.
func WriteError(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	status := apperror.HTTPStatus(err)
	if status == apperror.StatusClientClosedRequest {
		// Nobody is listening any more.
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message := appErr.Message
		if status >= fiber.StatusInternalServerError && appErr.Kind == apperror.ErrInternal {
			message = "Internal server error"
		}
		if len(appErr.Fields) > 0 {
			return ctx.Status(status).JSON(ValidationErrorResponse(status, message, appErr.Fields))
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}

	return ctx.Status(status).JSON(ErrorResponse(status, "Internal server error"))
}
