package handler

import (
	"errors"
	"net/http"

	"erpapi/internal/service"
	"erpapi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// contextUUID reads a middleware-set claim (userID, tenantID, companyID)
// from the gin context and parses it as a UUID.
func contextUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	raw, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// authScope extracts the authenticated identity set by the auth middleware.
// Aborts with 401 when any claim is missing or malformed.
func authScope(c *gin.Context) (userID, tenantID, companyID uuid.UUID, ok bool) {
	userID, okUser := contextUUID(c, "userID")
	tenantID, okTenant := contextUUID(c, "tenantID")
	companyID, okCompany := contextUUID(c, "companyID")
	if !okUser || !okTenant || !okCompany {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authentication context"))
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return userID, tenantID, companyID, true
}

// respondError maps service errors to HTTP status codes and writes the
// standard error envelope.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrEntityNotFound), errors.Is(err, service.ErrWorkflowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrDuplicateActiveRequest):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoApproverFound):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, response.Error(status, err.Error()))
}
