package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
)

// APIError is the body of every failed request.
type APIError struct {
	Message string `json:"message"`
	Code    uint32 `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statuses maps error kinds to HTTP statuses. The first match wins.
var statuses = []struct {
	kind   *errors.Error
	status int
}{
	{errors.ErrNotFound, http.StatusNotFound},
	{errors.ErrUnauthorized, http.StatusForbidden},
	{errors.ErrInput, http.StatusBadRequest},
	{errors.ErrEmpty, http.StatusBadRequest},
	{errors.ErrMsg, http.StatusBadRequest},
	{errors.ErrType, http.StatusBadRequest},
	{errors.ErrAmount, http.StatusBadRequest},
	{errors.ErrCurrency, http.StatusBadRequest},
	{errors.ErrDuplicate, http.StatusConflict},
	{errors.ErrState, http.StatusConflict},
	{errors.ErrInsufficientAmount, http.StatusConflict},
	{escrow.ErrTransferFailed, http.StatusConflict},
	{escrow.ErrAlreadyFunded, http.StatusConflict},
	{escrow.ErrNotFunded, http.StatusConflict},
	{escrow.ErrAlreadyDelivered, http.StatusConflict},
	{escrow.ErrNotDelivered, http.StatusConflict},
	{escrow.ErrAlreadyReleased, http.StatusConflict},
	{escrow.ErrAlreadyResolved, http.StatusConflict},
	{escrow.ErrNotDisputed, http.StatusConflict},
}

// HTTPStatus returns the status code a failure of given kind is reported
// with.
func HTTPStatus(err error) int {
	for _, s := range statuses {
		if s.kind.Is(err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError writes the error envelope. Errors that are not registered
// are redacted unless debug is set.
func RespondError(c *gin.Context, err error, debug bool) {
	code, log := errors.ABCIInfo(err, debug)
	c.AbortWithStatusJSON(HTTPStatus(err), ErrorEnvelope{
		Error: APIError{
			Message: log,
			Code:    code,
		},
	})
}

// RespondOK writes payload as JSON with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
