package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/item-service/internal/observability"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

// MiddlewareConfig bundles dependencies for global middlewares.
type MiddlewareConfig struct {
	AppName string
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Timeout time.Duration
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestID())
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = renderError(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler renders errors that escape the middleware chain, such as
// routing failures raised by fiber itself.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return renderError(c, logger, metrics, err)
	}
}

// renderError writes the single response for err. Validation failures use the
// field-indexed list shape; every other kind uses {error, message, code}.
func renderError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		metrics.RecordError(c.Path(), c.Method(), "ValidationError")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": verr.Violations})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		err = fromFiberError(fiberErr)
	}

	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Path(), c.Method(), domainErr.Kind)
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.Error(domainErr),
			zap.String("request_id", observability.RequestIDFromContext(c)))
	}
	for key, value := range domainErr.Headers {
		c.Set(key, value)
	}
	return c.Status(domainErr.HTTPStatus).JSON(domainErr.Body())
}

func fromFiberError(e *fiber.Error) error {
	switch e.Code {
	case fiber.StatusNotFound:
		return apperrors.NewNotFound(e.Message)
	case fiber.StatusMethodNotAllowed:
		return apperrors.NewDomainError("MethodNotAllowed", e.Message, e.Code)
	}
	if e.Code >= fiber.StatusInternalServerError {
		return apperrors.NewInternalError(e)
	}
	return apperrors.NewDomainError(apperrors.KindInvalidRequest, e.Message, e.Code)
}
