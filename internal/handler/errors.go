package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/pkg/response"
)

// respondError maps a domain error to the API error contract. Unknown errors
// become INTERNAL_ERROR without leaking their message.
func respondError(c *gin.Context, err error) {
	code := response.ErrCodeInternalError
	message := "An internal error occurred"

	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrSectionNotFound),
		errors.Is(err, domain.ErrTicketNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrHoldNotFound):
		code = response.ErrCodeNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrCapacityExceeded):
		code = response.ErrCodeCapacityExceeded
		message = err.Error()
	case errors.Is(err, domain.ErrEventNotOnSale):
		code = response.ErrCodeConflict
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		code = response.ErrCodeInvalidTransition
		message = err.Error()
	case errors.Is(err, domain.ErrNotRefundable):
		code = response.ErrCodeNotRefundable
		message = err.Error()
	case errors.Is(err, domain.ErrAlreadyRefunded):
		code = response.ErrCodeAlreadyRefunded
		message = err.Error()
	case errors.Is(err, domain.ErrInsufficientFunds):
		code = response.ErrCodeInsufficientFunds
		message = err.Error()
	case errors.Is(err, domain.ErrConflict):
		code = response.ErrCodeConflict
		message = err.Error()
	case errors.Is(err, domain.ErrValidation):
		code = response.ErrCodeValidationFailed
		message = err.Error()
	case errors.Is(err, domain.ErrExternalService):
		code = response.ErrCodeExternalService
		message = "Payment provider error"
	case errors.Is(err, domain.ErrConfiguration):
		code = response.ErrCodeConfiguration
	}

	c.JSON(response.GetHTTPStatus(code), response.Error(code, message))
}
