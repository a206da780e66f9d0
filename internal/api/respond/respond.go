// Package respond writes JSON error bodies for typed portal errors.
package respond

import (
	"errors"
	"fmt"
	"net/http"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// kinds whose own message is safe to show the caller
var publicMessageKinds = map[apperr.Kind]bool{
	apperr.KindValidation:   true,
	apperr.KindUnauthorized: true,
	apperr.KindForbidden:    true,
	apperr.KindNotFound:     true,
	apperr.KindSchema:       true,
	apperr.KindConflict:     true,
}

// Error aborts the request with the status and body for err.
func Error(c *gin.Context, log *logger.Logger, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := apperr.As(err)
	if typed == nil {
		typed = apperr.Wrap(apperr.KindInternal, err, "unexpected error")
	}

	meta := apperr.MetadataFor(typed.Kind())
	msg := meta.PublicMessage
	if publicMessageKinds[typed.Kind()] && typed.Message() != "" {
		msg = typed.Message()
	}

	body := ErrorEnvelope{Error: APIError{Code: string(typed.Kind()), Message: msg}}
	if meta.DetailsAllowed {
		body.Error.Details = typed.Details()
	}

	if log != nil {
		ctx := log.WithFields(c.Request.Context(), map[string]any{
			"error_code": string(typed.Kind()),
			"status":     meta.HTTPStatus,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			log.Error(ctx, "request.error", err)
		} else {
			log.Debug(log.WithField(ctx, "error", err.Error()), "request.rejected")
		}
	}

	c.AbortWithStatusJSON(meta.HTTPStatus, body)
}

// Binding converts a gin binding failure into a validation error with per-field details.
func Binding(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fe := range errs {
			details[fe.Field()] = validationMessage(fe)
		}
		return apperr.New(apperr.KindValidation, "validation failed").WithDetails(details)
	}
	return apperr.Wrap(apperr.KindValidation, err, "invalid request body").
		WithDetails(map[string]string{"error": err.Error()})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "objectid":
		return "must be a line id"
	case "line_status":
		return "must be PENDING_UPLOAD, PENDING_APPROVAL or DONE"
	}
	return "is invalid"
}
