package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
)

const genericErrorMessage = "Something went wrong."

func respondOK(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "fail", "message": message})
}

type errorMapping struct {
	target error
	status int
	// message replaces the error text when set; otherwise the wrapped detail is shown.
	message string
}

var errorMappings = []errorMapping{
	{target: domain.ErrValidation, status: http.StatusBadRequest},
	{target: domain.ErrAlreadyExists, status: http.StatusBadRequest},
	{target: domain.ErrEmptyCart, status: http.StatusBadRequest},
	{target: domain.ErrInsufficientStock, status: http.StatusBadRequest},
	{target: domain.ErrInvalidTransition, status: http.StatusBadRequest},
	{target: domain.ErrNotCancellable, status: http.StatusBadRequest},
	{target: domain.ErrCancellationWindowExpired, status: http.StatusBadRequest},
	{target: domain.ErrAlreadyCancelled, status: http.StatusBadRequest},
	{target: domain.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "Incorrect email or password"},
	{target: domain.ErrInvalidToken, status: http.StatusUnauthorized, message: "Invalid or expired token. Please log in again."},
	{target: domain.ErrAccountSuspended, status: http.StatusForbidden, message: "Your account has been suspended due to suspicious activity."},
	{target: domain.ErrNotAuthorized, status: http.StatusForbidden},
	{target: domain.ErrProductNotFound, status: http.StatusNotFound},
	{target: domain.ErrOrderNotFound, status: http.StatusNotFound},
	{target: domain.ErrCartItemNotFound, status: http.StatusNotFound},
	{target: domain.ErrNotFound, status: http.StatusNotFound},
}

// messageStripped lists sentinels whose own text is only a category label.
var messageStripped = []error{domain.ErrValidation, domain.ErrAlreadyExists, domain.ErrNotFound}

// writeError maps operational errors to their status and a safe message.
// Anything unrecognised is logged and reported as a generic 500.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": genericErrorMessage})
		return
	}
	respondFail(c, status, message)
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.message != "" {
			return m.status, m.message
		}
		msg := err.Error()
		for _, s := range messageStripped {
			msg = strings.TrimPrefix(msg, s.Error()+": ")
		}
		return m.status, msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "The request took too long. Please try again."
	}
	return http.StatusInternalServerError, genericErrorMessage
}
