package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vanik-system/internal/database/models"
	billing "vanik-system/internal/services/billing/handler"
)

type BillingHTTPHandler struct {
	billing *billing.BillingHandler
}

func NewBillingHTTPHandler(handler *billing.BillingHandler) *BillingHTTPHandler {
	return &BillingHTTPHandler{billing: handler}
}

type saveDocumentBody struct {
	PartyID   *int64     `json:"party_id,omitempty"`
	IssueDate *time.Time `json:"issue_date,omitempty"`
	Status    string     `json:"status" binding:"required"`
	Notes     *string    `json:"notes,omitempty"`
	Lines     []struct {
		ItemID          int64            `json:"item_id" binding:"required"`
		Quantity        int              `json:"quantity" binding:"required"`
		UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
		DiscountPerUnit decimal.Decimal  `json:"discount_per_unit"`
	} `json:"lines" binding:"required"`
}

func (b saveDocumentBody) toRequest(c *gin.Context, documentID *int64) *billing.SaveDocumentRequest {
	actorID, roleID := actor(c)
	req := &billing.SaveDocumentRequest{
		DocumentID: documentID,
		PartyID:    b.PartyID,
		Status:     models.DocumentStatus(b.Status),
		Notes:      b.Notes,
		Lines:      make([]billing.LineRequest, len(b.Lines)),
		ActorID:    actorID,
		RoleID:     roleID,
	}
	if b.IssueDate != nil {
		req.IssueDate = *b.IssueDate
	}
	for i, l := range b.Lines {
		req.Lines[i] = billing.LineRequest{
			ItemID:          l.ItemID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPerUnit: l.DiscountPerUnit,
		}
	}
	return req
}

func (h *BillingHTTPHandler) CreateInvoice(c *gin.Context) {
	h.saveDocument(c, models.ClassInvoice, nil)
}

func (h *BillingHTTPHandler) UpdateInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid document ID"))
		return
	}
	h.saveDocument(c, models.ClassInvoice, &id)
}

func (h *BillingHTTPHandler) CreatePurchase(c *gin.Context) {
	h.saveDocument(c, models.ClassPurchase, nil)
}

func (h *BillingHTTPHandler) UpdatePurchase(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid document ID"))
		return
	}
	h.saveDocument(c, models.ClassPurchase, &id)
}

func (h *BillingHTTPHandler) saveDocument(c *gin.Context, class models.DocumentClass, documentID *int64) {
	var body saveDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	req := body.toRequest(c, documentID)

	var (
		resp *billing.SaveDocumentResponse
		err  error
	)
	if class == models.ClassInvoice {
		resp, err = h.billing.SaveInvoice(c.Request.Context(), req)
	} else {
		resp, err = h.billing.SavePurchase(c.Request.Context(), req)
	}
	if err != nil {
		message := "Billing service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}

	status := http.StatusCreated
	if documentID != nil {
		status = http.StatusOK
	}
	c.JSON(status, successResponse("Document saved", resp.Document))
}

func (h *BillingHTTPHandler) CancelDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid document ID"))
		return
	}

	actorID, roleID := actor(c)
	resp, err := h.billing.CancelDocument(c.Request.Context(), &billing.CancelDocumentRequest{
		DocumentID: id,
		ActorID:    actorID,
		RoleID:     roleID,
	})
	if err != nil {
		message := "Billing service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	c.JSON(http.StatusOK, successResponse("Document cancelled", resp.Document))
}

func (h *BillingHTTPHandler) GetDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid document ID"))
		return
	}

	_, roleID := actor(c)
	resp, err := h.billing.GetDocument(c.Request.Context(), &billing.GetDocumentRequest{
		ID:     id,
		RoleID: roleID,
	})
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Document not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Document retrieved", resp.Document))
}

// LookupDocument fetches by document number. Numbers carry slashes
// ("INV/2025-26/0001"), so they travel as a query parameter rather than a
// path segment.
func (h *BillingHTTPHandler) LookupDocument(c *gin.Context) {
	number := c.Query("number")
	if number == "" {
		c.JSON(http.StatusBadRequest, errorResponse("number is required"))
		return
	}

	_, roleID := actor(c)
	resp, err := h.billing.GetDocument(c.Request.Context(), &billing.GetDocumentRequest{
		DocumentNumber: number,
		RoleID:         roleID,
	})
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Document not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Document retrieved", resp.Document))
}

type listDocumentsQuery struct {
	Class      *string `form:"class,omitempty"`
	Status     *string `form:"status,omitempty"`
	FiscalYear *string `form:"fiscal_year,omitempty"`
	PartyID    *int64  `form:"party_id,omitempty"`
	PageSize   int32   `form:"page_size,default=10"`
	PageToken  string  `form:"page_token"`
}

func (h *BillingHTTPHandler) ListDocuments(c *gin.Context) {
	var query listDocumentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	_, roleID := actor(c)
	req := &billing.ListDocumentsRequest{
		FiscalYear: query.FiscalYear,
		PartyID:    query.PartyID,
		Pagination: billing.PaginationRequest{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
		RoleID: roleID,
	}
	if query.Class != nil {
		class := models.DocumentClass(*query.Class)
		req.DocumentClass = &class
	}
	if query.Status != nil {
		status := models.DocumentStatus(*query.Status)
		req.Status = &status
	}

	resp, err := h.billing.ListDocuments(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Billing service error"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Documents retrieved", resp.Documents, resp.Pagination))
}
