package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estatex/estatex/pkg/errs"
)

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problem translates a domain error into a problem+json response. Every
// entry point returns either the entity or a single descriptive error.
func (s *Server) problem(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"

	switch {
	case errors.Is(err, errs.ErrAuthenticationRequired):
		status, title = http.StatusUnauthorized, "Authentication Required"
	case errors.Is(err, errs.ErrKYCNotVerified):
		status, title = http.StatusForbidden, "KYC Not Verified"
	case errors.Is(err, errs.ErrForbidden):
		status, title = http.StatusForbidden, "Forbidden"
	case errors.Is(err, errs.ErrNotFound):
		status, title = http.StatusNotFound, "Not Found"
	case errors.Is(err, errs.ErrInvalidState):
		status, title = http.StatusConflict, "Invalid State"
	case errors.Is(err, errs.ErrExpired):
		status, title = http.StatusGone, "Expired"
	case errors.Is(err, errs.ErrInsufficientBalance):
		status, title = http.StatusUnprocessableEntity, "Insufficient Balance"
	case errors.Is(err, errs.ErrArithmeticOverflow):
		status, title = http.StatusUnprocessableEntity, "Arithmetic Overflow"
	case errors.Is(err, errs.ErrInvalidArgument):
		status, title = http.StatusBadRequest, "Invalid Argument"
	default:
		s.logger.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}

	c.Header("Content-Type", "application/problem+json")
	c.JSON(status, ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   err.Error(),
		Instance: c.Request.URL.Path,
	})
}

// badRequest reports a malformed request body or parameter.
func (s *Server) badRequest(c *gin.Context, err error) {
	c.Header("Content-Type", "application/problem+json")
	c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     "about:blank",
		Title:    "Invalid Request",
		Status:   http.StatusBadRequest,
		Detail:   err.Error(),
		Instance: c.Request.URL.Path,
	})
}
