package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/smallbiznis/ticketprice/internal/event/domain"
	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
	ruledomain "github.com/smallbiznis/ticketprice/internal/pricingrule/domain"
	"github.com/smallbiznis/ticketprice/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid request")
}

func newValidationError(field, reason string) error {
	return &ValidationErrors{
		Errors: []ValidationError{{Field: field, Reason: reason}},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, validationPayload(vErr.Errors...)
	}

	var ruleErr *ruledomain.ValidationError
	if errors.As(err, &ruleErr) && ruleErr != nil {
		return http.StatusBadRequest, validationPayload(ValidationError{
			Field:  ruleErr.Field,
			Reason: ruleErr.Reason,
		})
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, validationPayload(ValidationError{
			Field:  validationErrorField(code),
			Reason: validationErrorReason(code),
		})
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isUnavailableError(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code the request logger records.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if vErr := asValidationErrors(err); vErr != nil && len(vErr.Errors) > 0 {
		return "validation_error", vErr.Errors[0].Field
	}
	var ruleErr *ruledomain.ValidationError
	if errors.As(err, &ruleErr) && ruleErr != nil {
		return "validation_error", ruleErr.Field
	}
	if isValidationError(err) {
		return "validation_error", validationErrorCode(err)
	}
	switch {
	case isConflictError(err):
		return "conflict", rootCode(err)
	case isNotFoundError(err):
		return "not_found", rootCode(err)
	case isUnavailableError(err):
		return "service_unavailable", rootCode(err)
	default:
		return "internal_error", "internal_error"
	}
}

func validationPayload(items ...ValidationError) errorPayload {
	return errorPayload{
		Type:    "validation_error",
		Message: "validation error",
		Errors:  items,
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isEventValidationError(err),
		isPricingRuleValidationError(err):
		return true
	default:
		return false
	}
}

func isEventValidationError(err error) bool {
	switch {
	case errors.Is(err, eventdomain.ErrInvalidID),
		errors.Is(err, eventdomain.ErrInvalidName),
		errors.Is(err, eventdomain.ErrInvalidSlug),
		errors.Is(err, eventdomain.ErrInvalidStartsAt),
		errors.Is(err, eventdomain.ErrInvalidBasePrice),
		errors.Is(err, eventdomain.ErrInvalidCurrency),
		errors.Is(err, eventdomain.ErrInvalidCapacity),
		errors.Is(err, eventdomain.ErrInvalidQuantity):
		return true
	default:
		return false
	}
}

func isPricingRuleValidationError(err error) bool {
	return errors.Is(err, ruledomain.ErrInvalidEvent) ||
		errors.Is(err, ruledomain.ErrInvalidID)
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, eventdomain.ErrSlugTaken),
		errors.Is(err, eventdomain.ErrEventFull),
		errors.Is(err, eventdomain.ErrEventStarted):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, eventdomain.ErrNotFound),
		errors.Is(err, ruledomain.ErrNotFound),
		errors.Is(err, ruledomain.ErrEventNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isUnavailableError(err error) bool {
	switch {
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, pricingdomain.ErrEventUnavailable),
		errors.Is(err, pricingdomain.ErrStoreUnavailable),
		db.IsUnavailableErr(err):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, eventdomain.ErrSlugTaken):
		return "slug already taken"
	case errors.Is(err, eventdomain.ErrEventFull):
		return "event is at capacity"
	case errors.Is(err, eventdomain.ErrEventStarted):
		return "event has already started"
	default:
		return "conflict"
	}
}

// rootCode unwraps to the innermost sentinel so wrapped errors log a stable code.
func rootCode(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ruledomain.ErrInvalidEvent),
		errors.Is(err, eventdomain.ErrInvalidID):
		return "invalid_event_id"
	case errors.Is(err, ruledomain.ErrInvalidID):
		return "invalid_rule_id"
	default:
		return rootCode(err)
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	return strings.TrimPrefix(code, "invalid_")
}

func validationErrorReason(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_event_id", "invalid_rule_id":
		return "must be a valid id"
	case "invalid_quantity":
		return "must be between 1 and 100"
	case "invalid_currency":
		return "must be a three-letter ISO 4217 code"
	default:
		return "invalid value"
	}
}
