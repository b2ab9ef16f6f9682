package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vanik-system/internal/database/models"
	reports "vanik-system/internal/services/reports/handler"
)

type ReportsHTTPHandler struct {
	reports *reports.ReportsHandler
}

func NewReportsHTTPHandler(handler *reports.ReportsHandler) *ReportsHTTPHandler {
	return &ReportsHTTPHandler{reports: handler}
}

type hsnReportQuery struct {
	FiscalYear string  `form:"fiscal_year" binding:"required"`
	Class      *string `form:"class,omitempty"`
}

func (h *ReportsHTTPHandler) HSNReport(c *gin.Context) {
	var query hsnReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("fiscal_year is required"))
		return
	}

	_, roleID := actor(c)
	req := &reports.HSNReportRequest{
		FiscalYear: query.FiscalYear,
		RoleID:     roleID,
	}
	if query.Class != nil {
		class := models.DocumentClass(*query.Class)
		req.DocumentClass = &class
	}

	resp, err := h.reports.HSNReport(c.Request.Context(), req)
	if err != nil {
		message := "Reports service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	c.JSON(http.StatusOK, successResponse("HSN summary retrieved", resp))
}

func (h *ReportsHTTPHandler) StockValuation(c *gin.Context) {
	_, roleID := actor(c)
	resp, err := h.reports.StockValuation(c.Request.Context(), roleID)
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Reports service error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock valuation retrieved", resp))
}
