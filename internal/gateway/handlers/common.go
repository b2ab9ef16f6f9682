package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vanik-system/internal/gate"
	"vanik-system/internal/gateway/middleware"
	"vanik-system/internal/gst"
	billing "vanik-system/internal/services/billing/handler"
	inventory "vanik-system/internal/services/inventory/handler"
	reports "vanik-system/internal/services/reports/handler"
	user "vanik-system/internal/services/user/handler"
	"vanik-system/internal/sequence"
	"vanik-system/internal/stockledger"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// actor pulls the authenticated identity the JWT middleware attached.
func actor(c *gin.Context) (userID int64, roleID int32) {
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(int64); ok {
			userID = id
		}
	}
	if v, ok := c.Get(middleware.ContextRoleID); ok {
		if id, ok := v.(int32); ok {
			roleID = id
		}
	}
	return userID, roleID
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, gate.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, billing.ErrDocumentNotFound),
		errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, inventory.ErrPartyNotFound):
		return http.StatusNotFound
	case errors.Is(err, stockledger.ErrInsufficientStock),
		errors.Is(err, billing.ErrInvalidStateTransition),
		errors.Is(err, sequence.ErrDuplicateDocumentNumber):
		return http.StatusConflict
	case errors.Is(err, gst.ErrInvalidLineItem),
		errors.Is(err, billing.ErrNoLineItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reports.ErrFiscalYearRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
