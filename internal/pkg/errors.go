package pkg

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Normalize maps any failure raised during request processing onto the
// operational error taxonomy. Typed AppErrors pass through untouched;
// collaborator failures are classified by attribute inspection, never by
// message matching. Anything unrecognized is an internal (unexpected) error.
func Normalize(err error) *domain.AppError {
	if err == nil {
		return nil
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.NewAppError(domain.CodeDuplicate, "duplicate field value, please use another value", err)
	case errors.Is(err, primitive.ErrInvalidHex):
		return domain.NewAppError(domain.CodeValidation, "invalid identifier", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.NewAppError(domain.CodeTokenExpired, domain.ErrTokenExpired.Message, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.NewAppError(domain.CodeInvalidToken, domain.ErrInvalidToken.Message, err)
	}

	// The driver returns MarshalError by value, so the As target must be
	// the value type.
	var castErr mongo.MarshalError
	if errors.As(err, &castErr) {
		return domain.NewAppError(domain.CodeValidation, "invalid field value", err)
	}

	return domain.NewAppError(domain.CodeInternal, "something went very wrong", err)
}

// Error is the single exit point for failed requests. It normalizes err,
// logs non-operational failures, and writes a response whose shape depends
// on the route (JSON for /api, an error page otherwise) and whose verbosity
// depends on the deployment mode: debug mode includes the full detail and
// stack, release mode reveals only operational messages.
func Error(c *gin.Context, err error) {
	appErr := Normalize(err)
	if appErr == nil {
		return
	}
	status := domain.HTTPStatusCode(appErr)

	// Unexpected errors are always logged server-side regardless of mode.
	if !domain.IsOperational(appErr) {
		slog.ErrorContext(c.Request.Context(), "unexpected error",
			slog.Any("error", appErr.Err),
			slog.String("message", appErr.Message),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
	}

	if isAPIRequest(c) {
		writeAPIError(c, status, appErr)
		return
	}
	renderErrorPage(c, status, appErr)
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api")
}

func writeAPIError(c *gin.Context, status int, appErr *domain.AppError) {
	envelope := Response{
		Status:  statusWord(status),
		Message: appErr.Message,
	}

	if gin.Mode() != gin.ReleaseMode {
		if appErr.Err != nil {
			envelope.Detail = appErr.Err.Error()
		}
		envelope.Stack = string(debug.Stack())
	} else if !domain.IsOperational(appErr) {
		envelope.Message = "something went very wrong"
	}

	c.Abort()
	c.JSON(status, envelope)
}

// renderErrorPage renders the error template for page routes. In release
// mode, non-operational messages are replaced with a generic one. If no HTML
// renderer is configured, it falls back to plain text.
func renderErrorPage(c *gin.Context, status int, appErr *domain.AppError) {
	msg := appErr.Message
	if gin.Mode() == gin.ReleaseMode && !domain.IsOperational(appErr) {
		msg = "Please try again later."
	}

	c.Abort()
	defer func() {
		if r := recover(); r != nil {
			c.Data(status, "text/plain; charset=utf-8", []byte(http.StatusText(status)))
		}
	}()
	c.HTML(status, "errors/error.html", gin.H{
		"Title":   "Something went wrong!",
		"Message": msg,
	})
}

func statusWord(status int) string {
	if status >= http.StatusInternalServerError {
		return StatusError
	}
	return StatusFail
}
