package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vanik-system/internal/database/models"
	inventory "vanik-system/internal/services/inventory/handler"
)

type InventoryHTTPHandler struct {
	inventory *inventory.InventoryHandler
}

func NewInventoryHTTPHandler(handler *inventory.InventoryHandler) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{inventory: handler}
}

type saveItemBody struct {
	ItemCode      string          `json:"item_code" binding:"required"`
	ItemName      string          `json:"item_name" binding:"required"`
	HSNCode       string          `json:"hsn_code"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	GSTPercent    decimal.Decimal `json:"gst_percent"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MinStockLevel int             `json:"min_stock_level"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

func (h *InventoryHTTPHandler) saveItem(c *gin.Context, id int64) {
	var body saveItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	actorID, roleID := actor(c)
	resp, err := h.inventory.SaveItem(c.Request.Context(), &inventory.SaveItemRequest{
		ID: id,
		Item: inventory.ItemPayload{
			ItemCode:      body.ItemCode,
			ItemName:      body.ItemName,
			HSNCode:       body.HSNCode,
			UnitOfMeasure: body.UnitOfMeasure,
			GSTPercent:    body.GSTPercent,
			PurchasePrice: body.PurchasePrice,
			SellingPrice:  body.SellingPrice,
			MinStockLevel: body.MinStockLevel,
			IsActive:      body.IsActive,
		},
		ActorID: actorID,
		RoleID:  roleID,
	})
	if err != nil {
		message := "Inventory service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	if !resp.Success {
		message := "Invalid item"
		if resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(http.StatusBadRequest, errorResponse(message))
		return
	}

	status := http.StatusCreated
	if id != 0 {
		status = http.StatusOK
	}
	c.JSON(status, successResponse("Item saved", resp.Item))
}

func (h *InventoryHTTPHandler) CreateItem(c *gin.Context) {
	h.saveItem(c, 0)
}

func (h *InventoryHTTPHandler) UpdateItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid item ID"))
		return
	}
	h.saveItem(c, id)
}

func (h *InventoryHTTPHandler) GetItem(c *gin.Context) {
	_, roleID := actor(c)

	var (
		resp *inventory.ItemResponse
		err  error
	)
	if id, parseErr := strconv.ParseInt(c.Param("id"), 10, 64); parseErr == nil {
		resp, err = h.inventory.GetItem(c.Request.Context(), id, roleID)
	} else {
		resp, err = h.inventory.GetItemByCode(c.Request.Context(), c.Param("id"), roleID)
	}
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Item not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Item retrieved", resp.Item))
}

type listItemsQuery struct {
	Search    *string `form:"search,omitempty"`
	IsActive  *bool   `form:"is_active,omitempty"`
	LowStock  bool    `form:"low_stock"`
	PageSize  int32   `form:"page_size,default=10"`
	PageToken string  `form:"page_token"`
}

func (h *InventoryHTTPHandler) ListItems(c *gin.Context) {
	var query listItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	_, roleID := actor(c)
	resp, err := h.inventory.ListItems(c.Request.Context(), &inventory.ListItemsRequest{
		SearchTerm: query.Search,
		IsActive:   query.IsActive,
		LowStock:   query.LowStock,
		Pagination: inventory.PaginationRequest{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
		RoleID: roleID,
	})
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Inventory service error"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Items retrieved", resp.Items, resp.Pagination))
}

type openingStockBody struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

func (h *InventoryHTTPHandler) SetOpeningStock(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid item ID"))
		return
	}
	var body openingStockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	actorID, roleID := actor(c)
	resp, err := h.inventory.SetOpeningStock(c.Request.Context(), &inventory.OpeningStockRequest{
		ItemID:   itemID,
		Quantity: body.Quantity,
		ActorID:  actorID,
		RoleID:   roleID,
	})
	if err != nil {
		message := "Inventory service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	if !resp.Success {
		message := "Invalid request"
		if resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(http.StatusBadRequest, errorResponse(message))
		return
	}
	c.JSON(http.StatusOK, successResponse("Opening stock recorded", resp.Item))
}

type adjustStockBody struct {
	Delta  int     `json:"delta" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}

func (h *InventoryHTTPHandler) AdjustStock(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid item ID"))
		return
	}
	var body adjustStockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	actorID, roleID := actor(c)
	resp, err := h.inventory.AdjustStock(c.Request.Context(), &inventory.AdjustStockRequest{
		ItemID:  itemID,
		Delta:   body.Delta,
		Reason:  body.Reason,
		ActorID: actorID,
		RoleID:  roleID,
	})
	if err != nil {
		message := "Inventory service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock adjusted", resp.Item))
}

type listLedgerQuery struct {
	ItemID    *int64     `form:"item_id,omitempty"`
	EntryType *string    `form:"entry_type,omitempty"`
	From      *time.Time `form:"from,omitempty" time_format:"2006-01-02"`
	To        *time.Time `form:"to,omitempty" time_format:"2006-01-02"`
	PageSize  int32      `form:"page_size,default=10"`
	PageToken string     `form:"page_token"`
}

func (h *InventoryHTTPHandler) ListLedgerEntries(c *gin.Context) {
	var query listLedgerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	_, roleID := actor(c)
	req := &inventory.ListLedgerEntriesRequest{
		ItemID: query.ItemID,
		From:   query.From,
		To:     query.To,
		Pagination: inventory.PaginationRequest{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
		RoleID: roleID,
	}
	if query.EntryType != nil {
		entryType := models.EntryType(*query.EntryType)
		req.EntryType = &entryType
	}

	resp, err := h.inventory.ListLedgerEntries(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Inventory service error"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Ledger entries retrieved", resp.Entries, resp.Pagination))
}

type savePartyBody struct {
	Name      string  `json:"name" binding:"required"`
	GSTIN     *string `json:"gstin,omitempty"`
	StateCode string  `json:"state_code" binding:"required"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (b savePartyBody) payload() inventory.PartyPayload {
	return inventory.PartyPayload{
		Name:      b.Name,
		GSTIN:     b.GSTIN,
		StateCode: b.StateCode,
		Phone:     b.Phone,
		Email:     b.Email,
		Address:   b.Address,
		IsActive:  b.IsActive,
	}
}

type savePartyFunc func(c *gin.Context, req *inventory.SavePartyRequest) (*inventory.PartyResponse, error)

func (h *InventoryHTTPHandler) saveParty(c *gin.Context, id int64, save savePartyFunc) {
	var body savePartyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	actorID, roleID := actor(c)
	resp, err := save(c, &inventory.SavePartyRequest{
		ID:      id,
		Party:   body.payload(),
		ActorID: actorID,
		RoleID:  roleID,
	})
	if err != nil {
		message := "Inventory service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}

	status := http.StatusCreated
	if id != 0 {
		status = http.StatusOK
	}
	c.JSON(status, successResponse("Saved", resp.Party))
}

func (h *InventoryHTTPHandler) CreateCustomer(c *gin.Context) {
	h.saveParty(c, 0, func(c *gin.Context, req *inventory.SavePartyRequest) (*inventory.PartyResponse, error) {
		return h.inventory.SaveCustomer(c.Request.Context(), req)
	})
}

func (h *InventoryHTTPHandler) UpdateCustomer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid customer ID"))
		return
	}
	h.saveParty(c, id, func(c *gin.Context, req *inventory.SavePartyRequest) (*inventory.PartyResponse, error) {
		return h.inventory.SaveCustomer(c.Request.Context(), req)
	})
}

func (h *InventoryHTTPHandler) CreateSupplier(c *gin.Context) {
	h.saveParty(c, 0, func(c *gin.Context, req *inventory.SavePartyRequest) (*inventory.PartyResponse, error) {
		return h.inventory.SaveSupplier(c.Request.Context(), req)
	})
}

func (h *InventoryHTTPHandler) UpdateSupplier(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid supplier ID"))
		return
	}
	h.saveParty(c, id, func(c *gin.Context, req *inventory.SavePartyRequest) (*inventory.PartyResponse, error) {
		return h.inventory.SaveSupplier(c.Request.Context(), req)
	})
}

func (h *InventoryHTTPHandler) GetCustomer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid customer ID"))
		return
	}
	_, roleID := actor(c)
	resp, err := h.inventory.GetCustomer(c.Request.Context(), id, roleID)
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Customer not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Customer retrieved", resp.Party))
}

func (h *InventoryHTTPHandler) GetSupplier(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid supplier ID"))
		return
	}
	_, roleID := actor(c)
	resp, err := h.inventory.GetSupplier(c.Request.Context(), id, roleID)
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Supplier not found"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Supplier retrieved", resp.Party))
}

type listPartiesQuery struct {
	Search    *string `form:"search,omitempty"`
	PageSize  int32   `form:"page_size,default=10"`
	PageToken string  `form:"page_token"`
}

func (h *InventoryHTTPHandler) ListCustomers(c *gin.Context) {
	h.listParties(c, func(c *gin.Context, req *inventory.ListPartiesRequest) (*inventory.ListPartiesResponse, error) {
		return h.inventory.ListCustomers(c.Request.Context(), req)
	})
}

func (h *InventoryHTTPHandler) ListSuppliers(c *gin.Context) {
	h.listParties(c, func(c *gin.Context, req *inventory.ListPartiesRequest) (*inventory.ListPartiesResponse, error) {
		return h.inventory.ListSuppliers(c.Request.Context(), req)
	})
}

func (h *InventoryHTTPHandler) listParties(c *gin.Context, list func(*gin.Context, *inventory.ListPartiesRequest) (*inventory.ListPartiesResponse, error)) {
	var query listPartiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	_, roleID := actor(c)
	resp, err := list(c, &inventory.ListPartiesRequest{
		SearchTerm: query.Search,
		Pagination: inventory.PaginationRequest{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
		RoleID: roleID,
	})
	if err != nil {
		c.JSON(statusForError(err), errorResponse("Inventory service error"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Retrieved", resp.Parties, resp.Pagination))
}
