package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vanik-system/config"
	"vanik-system/internal/audit"
	"vanik-system/internal/database/models"
	"vanik-system/internal/gate"
	"vanik-system/internal/gst"
	"vanik-system/internal/stockledger"
)

const (
	INVENTORY_CACHE_PREFIX = "inventory:"
	ITEMS_CACHE_KEY        = "inventory:items"
	LOW_STOCK_CACHE_KEY    = "inventory:low-stock"
	CACHE_TTL_SHORT        = 5 * time.Minute
)

const (
	PermissionInventoryManage = "inventory:manage"
	PermissionInventoryAdjust = "inventory:adjust"
	PermissionInventoryView   = "inventory:view"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrPartyNotFound = errors.New("party not found")
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func pageWindow(p PaginationRequest) (pageSize, offset, pageNumber int) {
	pageSize = int(p.PageSize)
	if pageSize <= 0 {
		pageSize = 10
	}
	pageNumber = 1
	if p.PageToken != "" {
		if n, err := strconv.Atoi(p.PageToken); err == nil && n > 0 {
			pageNumber = n
		}
	}
	return pageSize, (pageNumber - 1) * pageSize, pageNumber
}

func nextToken(pageNumber, pageSize int, total int64) string {
	if int64(pageNumber*pageSize) < total {
		return strconv.Itoa(pageNumber + 1)
	}
	return ""
}

type PaginationRequest struct {
	PageSize  int32  `json:"page_size"`
	PageToken string `json:"page_token"`
}

type PaginationResponse struct {
	NextPageToken string `json:"next_page_token"`
	TotalCount    int32  `json:"total_count"`
}

type ItemPayload struct {
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	HSNCode       string          `json:"hsn_code"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	GSTPercent    decimal.Decimal `json:"gst_percent"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MinStockLevel int             `json:"min_stock_level"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

type SaveItemRequest struct {
	ID   int64       `json:"id,omitempty"`
	Item ItemPayload `json:"item"`

	ActorID int64 `json:"-"`
	RoleID  int32 `json:"-"`
}

type ItemView struct {
	ID            int64     `json:"id"`
	ItemCode      string    `json:"item_code"`
	ItemName      string    `json:"item_name"`
	HSNCode       string    `json:"hsn_code"`
	UnitOfMeasure string    `json:"unit_of_measure"`
	GSTPercent    string    `json:"gst_percent"`
	PurchasePrice string    `json:"purchase_price"`
	SellingPrice  string    `json:"selling_price"`
	CurrentStock  int       `json:"current_stock"`
	MinStockLevel int       `json:"min_stock_level"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ItemResponse struct {
	Success bool      `json:"success"`
	Message *string   `json:"message,omitempty"`
	Item    *ItemView `json:"item,omitempty"`
}

type ListItemsRequest struct {
	SearchTerm *string           `json:"search_term,omitempty"`
	IsActive   *bool             `json:"is_active,omitempty"`
	LowStock   bool              `json:"low_stock,omitempty"`
	Pagination PaginationRequest `json:"pagination"`

	RoleID int32 `json:"-"`
}

type ListItemsResponse struct {
	Success    bool                `json:"success"`
	Message    *string             `json:"message,omitempty"`
	Items      []*ItemView         `json:"items"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}

type OpeningStockRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`

	ActorID int64 `json:"-"`
	RoleID  int32 `json:"-"`
}

type AdjustStockRequest struct {
	ItemID int64   `json:"item_id"`
	Delta  int     `json:"delta"`
	Reason *string `json:"reason,omitempty"`

	ActorID int64 `json:"-"`
	RoleID  int32 `json:"-"`
}

type StockMutationResponse struct {
	Success bool      `json:"success"`
	Message *string   `json:"message,omitempty"`
	Item    *ItemView `json:"item,omitempty"`
}

type ListLedgerEntriesRequest struct {
	ItemID     *int64            `json:"item_id,omitempty"`
	EntryType  *models.EntryType `json:"entry_type,omitempty"`
	From       *time.Time        `json:"from,omitempty"`
	To         *time.Time        `json:"to,omitempty"`
	Pagination PaginationRequest `json:"pagination"`

	RoleID int32 `json:"-"`
}

type LedgerEntryView struct {
	ID             int64            `json:"id"`
	ItemID         int64            `json:"item_id"`
	EntryType      models.EntryType `json:"entry_type"`
	ReferenceID    string           `json:"reference_id"`
	QuantityChange int              `json:"quantity_change"`
	PreviousStock  int              `json:"previous_stock"`
	NewStock       int              `json:"new_stock"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedBy      int64            `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
}

type ListLedgerEntriesResponse struct {
	Success    bool                `json:"success"`
	Message    *string             `json:"message,omitempty"`
	Entries    []*LedgerEntryView  `json:"entries"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}

type PartyPayload struct {
	Name      string  `json:"name"`
	GSTIN     *string `json:"gstin,omitempty"`
	StateCode string  `json:"state_code"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type SavePartyRequest struct {
	ID    int64        `json:"id,omitempty"`
	Party PartyPayload `json:"party"`

	ActorID int64 `json:"-"`
	RoleID  int32 `json:"-"`
}

type PartyView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GSTIN     *string   `json:"gstin,omitempty"`
	StateCode string    `json:"state_code"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type PartyResponse struct {
	Success bool       `json:"success"`
	Message *string    `json:"message,omitempty"`
	Party   *PartyView `json:"party,omitempty"`
}

type ListPartiesRequest struct {
	SearchTerm *string           `json:"search_term,omitempty"`
	Pagination PaginationRequest `json:"pagination"`

	RoleID int32 `json:"-"`
}

type ListPartiesResponse struct {
	Success    bool                `json:"success"`
	Message    *string             `json:"message,omitempty"`
	Parties    []*PartyView        `json:"parties"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}

// InventoryHandler owns the item/customer/supplier registry and the manual
// paths into the stock ledger (opening balances and corrections). Stock
// numbers are never written directly here; everything goes through the
// coordinator.
type InventoryHandler struct {
	db      *gorm.DB
	ledger  *stockledger.Coordinator
	gate    *gate.Checker
	auditor *audit.Writer
	redis   *redis.Client
	logger  *logrus.Logger

	allowedRates []decimal.Decimal
}

func NewInventoryHandler(db *gorm.DB, ledger *stockledger.Coordinator, checker *gate.Checker, auditor *audit.Writer, redisClient *redis.Client, allowedRates []decimal.Decimal) *InventoryHandler {
	if len(allowedRates) == 0 {
		allowedRates = gst.DefaultRates
	}
	return &InventoryHandler{
		db:           db,
		ledger:       ledger,
		gate:         checker,
		auditor:      auditor,
		redis:        redisClient,
		logger:       config.GetLogger(),
		allowedRates: allowedRates,
	}
}

func (s *InventoryHandler) InvalidateInventoryCaches(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, ITEMS_CACHE_KEY, LOW_STOCK_CACHE_KEY).Err(); err != nil {
		s.logger.WithField("error", err.Error()).Warn("inventory cache invalidation failed")
	}
}

// --- Items ---

func (s *InventoryHandler) SaveItem(ctx context.Context, req *SaveItemRequest) (*ItemResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryManage); err != nil {
		return &ItemResponse{Success: false, Message: strPtr("permission denied")}, err
	}
	if req.Item.ItemCode == "" || req.Item.ItemName == "" {
		return &ItemResponse{Success: false, Message: strPtr("item_code and item_name required")}, nil
	}
	if !rateAllowed(req.Item.GSTPercent, s.allowedRates) {
		return &ItemResponse{
			Success: false,
			Message: strPtr(fmt.Sprintf("gst rate %s not in the allowed slabs", req.Item.GSTPercent)),
		}, gst.ErrInvalidLineItem
	}

	var item models.Item
	var previous *ItemView
	if req.ID != 0 {
		if err := s.db.First(&item, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ItemResponse{Success: false, Message: strPtr("item not found")}, ErrItemNotFound
			}
			return &ItemResponse{Success: false, Message: strPtr("database error")}, err
		}
		previous = itemToView(&item)
	}

	item.ItemCode = req.Item.ItemCode
	item.ItemName = req.Item.ItemName
	item.HSNCode = req.Item.HSNCode
	item.UnitOfMeasure = req.Item.UnitOfMeasure
	item.GSTPercent = req.Item.GSTPercent
	item.PurchasePrice = req.Item.PurchasePrice
	item.SellingPrice = req.Item.SellingPrice
	item.MinStockLevel = req.Item.MinStockLevel
	if req.Item.IsActive != nil {
		item.IsActive = *req.Item.IsActive
	} else if req.ID == 0 {
		item.IsActive = true
	}

	if err := s.db.Save(&item).Error; err != nil {
		return &ItemResponse{Success: false, Message: strPtr("database error")}, err
	}

	s.InvalidateInventoryCaches(ctx)

	action := "item.create"
	if req.ID != 0 {
		action = "item.update"
	}
	s.auditor.Record(nil, req.ActorID, action, "item", strconv.FormatInt(item.ID, 10), previous, itemToView(&item))

	return &ItemResponse{Success: true, Item: itemToView(&item)}, nil
}

func (s *InventoryHandler) GetItem(ctx context.Context, id int64, roleID int32) (*ItemResponse, error) {
	if err := s.gate.Require(roleID, PermissionInventoryView); err != nil {
		return &ItemResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var item models.Item
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ItemResponse{Success: false, Message: strPtr("item not found")}, ErrItemNotFound
		}
		return &ItemResponse{Success: false, Message: strPtr("database error")}, err
	}
	return &ItemResponse{Success: true, Item: itemToView(&item)}, nil
}

func (s *InventoryHandler) GetItemByCode(ctx context.Context, code string, roleID int32) (*ItemResponse, error) {
	if err := s.gate.Require(roleID, PermissionInventoryView); err != nil {
		return &ItemResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var item models.Item
	if err := s.db.Where("item_code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ItemResponse{Success: false, Message: strPtr("item not found")}, ErrItemNotFound
		}
		return &ItemResponse{Success: false, Message: strPtr("database error")}, err
	}
	return &ItemResponse{Success: true, Item: itemToView(&item)}, nil
}

func (s *InventoryHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryView); err != nil {
		return &ListItemsResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	query := s.db.Model(&models.Item{})
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.LowStock {
		query = query.Where("current_stock <= min_stock_level")
	}
	if req.SearchTerm != nil && *req.SearchTerm != "" {
		term := "%" + *req.SearchTerm + "%"
		query = query.Where("item_code LIKE ? OR item_name LIKE ? OR hsn_code LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return &ListItemsResponse{Success: false, Message: strPtr("database error")}, err
	}

	pageSize, offset, pageNumber := pageWindow(req.Pagination)
	var items []models.Item
	if err := query.Order("item_code ASC").Offset(offset).Limit(pageSize).Find(&items).Error; err != nil {
		return &ListItemsResponse{Success: false, Message: strPtr("database error")}, err
	}

	views := make([]*ItemView, len(items))
	for i := range items {
		views[i] = itemToView(&items[i])
	}
	return &ListItemsResponse{
		Success: true,
		Items:   views,
		Pagination: &PaginationResponse{
			NextPageToken: nextToken(pageNumber, pageSize, total),
			TotalCount:    int32(total),
		},
	}, nil
}

// --- Stock mutations ---

// SetOpeningStock records an item's opening balance through the ledger with a
// synthetic reference. It is rejected once the item has any ledger history.
func (s *InventoryHandler) SetOpeningStock(ctx context.Context, req *OpeningStockRequest) (*StockMutationResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryAdjust); err != nil {
		return &StockMutationResponse{Success: false, Message: strPtr("permission denied")}, err
	}
	if req.Quantity < 0 {
		return &StockMutationResponse{Success: false, Message: strPtr("opening stock cannot be negative")}, nil
	}

	reference := fmt.Sprintf("OPENING-%d", req.ItemID)
	err := s.ledger.RunSerialized(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LedgerEntry{}).Where("item_id = ?", req.ItemID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("item %d already has ledger history", req.ItemID)
		}
		return s.ledger.ApplyOpening(tx, req.ItemID, req.Quantity, reference, req.ActorID)
	})
	if err != nil {
		return &StockMutationResponse{Success: false, Message: strPtr(err.Error())}, err
	}

	s.InvalidateInventoryCaches(ctx)
	s.auditor.Record(nil, req.ActorID, "stock.opening", "item", strconv.FormatInt(req.ItemID, 10), nil, req.Quantity)

	return s.mutationResult(req.ItemID)
}

// AdjustStock applies a signed manual correction through the ledger.
func (s *InventoryHandler) AdjustStock(ctx context.Context, req *AdjustStockRequest) (*StockMutationResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryAdjust); err != nil {
		return &StockMutationResponse{Success: false, Message: strPtr("permission denied")}, err
	}
	if req.Delta == 0 {
		return &StockMutationResponse{Success: false, Message: strPtr("delta must be nonzero")}, nil
	}

	reference := fmt.Sprintf("ADJ-%d-%d", req.ItemID, time.Now().UnixNano())
	err := s.ledger.RunSerialized(func(tx *gorm.DB) error {
		return s.ledger.ApplyAdjustment(tx, req.ItemID, req.Delta, req.Reason, reference, req.ActorID)
	})
	if err != nil {
		if errors.Is(err, stockledger.ErrInsufficientStock) {
			return &StockMutationResponse{Success: false, Message: strPtr(err.Error())}, err
		}
		return &StockMutationResponse{Success: false, Message: strPtr("database error")}, err
	}

	s.InvalidateInventoryCaches(ctx)
	s.auditor.Record(nil, req.ActorID, "stock.adjust", "item", strconv.FormatInt(req.ItemID, 10), nil, req.Delta)

	return s.mutationResult(req.ItemID)
}

func (s *InventoryHandler) mutationResult(itemID int64) (*StockMutationResponse, error) {
	var item models.Item
	if err := s.db.First(&item, itemID).Error; err != nil {
		return &StockMutationResponse{Success: false, Message: strPtr("database error")}, err
	}
	return &StockMutationResponse{Success: true, Item: itemToView(&item)}, nil
}

func (s *InventoryHandler) ListLedgerEntries(ctx context.Context, req *ListLedgerEntriesRequest) (*ListLedgerEntriesResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryView); err != nil {
		return &ListLedgerEntriesResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	query := s.db.Model(&models.LedgerEntry{})
	if req.ItemID != nil {
		query = query.Where("item_id = ?", *req.ItemID)
	}
	if req.EntryType != nil {
		query = query.Where("entry_type = ?", *req.EntryType)
	}
	if req.From != nil {
		query = query.Where("created_at >= ?", *req.From)
	}
	if req.To != nil {
		query = query.Where("created_at < ?", *req.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return &ListLedgerEntriesResponse{Success: false, Message: strPtr("database error")}, err
	}

	pageSize, offset, pageNumber := pageWindow(req.Pagination)
	var entries []models.LedgerEntry
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&entries).Error; err != nil {
		return &ListLedgerEntriesResponse{Success: false, Message: strPtr("database error")}, err
	}

	views := make([]*LedgerEntryView, len(entries))
	for i, e := range entries {
		views[i] = &LedgerEntryView{
			ID:             e.ID,
			ItemID:         e.ItemID,
			EntryType:      e.EntryType,
			ReferenceID:    e.ReferenceID,
			QuantityChange: e.QuantityChange,
			PreviousStock:  e.PreviousStock,
			NewStock:       e.NewStock,
			Notes:          e.Notes,
			CreatedBy:      e.CreatedBy,
			CreatedAt:      e.CreatedAt,
		}
	}
	return &ListLedgerEntriesResponse{
		Success: true,
		Entries: views,
		Pagination: &PaginationResponse{
			NextPageToken: nextToken(pageNumber, pageSize, total),
			TotalCount:    int32(total),
		},
	}, nil
}

// --- Customers / Suppliers ---

func (s *InventoryHandler) SaveCustomer(ctx context.Context, req *SavePartyRequest) (*PartyResponse, error) {
	return saveParty[models.Customer](s, ctx, req, "customer")
}

func (s *InventoryHandler) SaveSupplier(ctx context.Context, req *SavePartyRequest) (*PartyResponse, error) {
	return saveParty[models.Supplier](s, ctx, req, "supplier")
}

func (s *InventoryHandler) GetCustomer(ctx context.Context, id int64, roleID int32) (*PartyResponse, error) {
	return getParty[models.Customer](s, id, roleID)
}

func (s *InventoryHandler) GetSupplier(ctx context.Context, id int64, roleID int32) (*PartyResponse, error) {
	return getParty[models.Supplier](s, id, roleID)
}

func (s *InventoryHandler) ListCustomers(ctx context.Context, req *ListPartiesRequest) (*ListPartiesResponse, error) {
	return listParties[models.Customer](s, req)
}

func (s *InventoryHandler) ListSuppliers(ctx context.Context, req *ListPartiesRequest) (*ListPartiesResponse, error) {
	return listParties[models.Supplier](s, req)
}

type partyModel interface {
	models.Customer | models.Supplier
}

func saveParty[M partyModel](s *InventoryHandler, ctx context.Context, req *SavePartyRequest, entityType string) (*PartyResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryManage); err != nil {
		return &PartyResponse{Success: false, Message: strPtr("permission denied")}, err
	}
	if req.Party.Name == "" || req.Party.StateCode == "" {
		return &PartyResponse{Success: false, Message: strPtr("name and state_code required")}, nil
	}

	var record M
	if req.ID != 0 {
		if err := s.db.First(&record, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &PartyResponse{Success: false, Message: strPtr(entityType + " not found")}, ErrPartyNotFound
			}
			return &PartyResponse{Success: false, Message: strPtr("database error")}, err
		}
	}

	applyPartyPayload(&record, req.Party, req.ID == 0)
	if err := s.db.Save(&record).Error; err != nil {
		return &PartyResponse{Success: false, Message: strPtr("database error")}, err
	}

	view := partyToView(&record)
	action := entityType + ".create"
	if req.ID != 0 {
		action = entityType + ".update"
	}
	s.auditor.Record(nil, req.ActorID, action, entityType, strconv.FormatInt(view.ID, 10), nil, view)

	return &PartyResponse{Success: true, Party: view}, nil
}

func getParty[M partyModel](s *InventoryHandler, id int64, roleID int32) (*PartyResponse, error) {
	if err := s.gate.Require(roleID, PermissionInventoryView); err != nil {
		return &PartyResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var record M
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PartyResponse{Success: false, Message: strPtr("not found")}, ErrPartyNotFound
		}
		return &PartyResponse{Success: false, Message: strPtr("database error")}, err
	}
	return &PartyResponse{Success: true, Party: partyToView(&record)}, nil
}

func listParties[M partyModel](s *InventoryHandler, req *ListPartiesRequest) (*ListPartiesResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionInventoryView); err != nil {
		return &ListPartiesResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var model M
	query := s.db.Model(&model)
	if req.SearchTerm != nil && *req.SearchTerm != "" {
		term := "%" + *req.SearchTerm + "%"
		query = query.Where("name LIKE ? OR gstin LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return &ListPartiesResponse{Success: false, Message: strPtr("database error")}, err
	}

	pageSize, offset, pageNumber := pageWindow(req.Pagination)
	var records []M
	if err := query.Order("name ASC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return &ListPartiesResponse{Success: false, Message: strPtr("database error")}, err
	}

	views := make([]*PartyView, len(records))
	for i := range records {
		views[i] = partyToView(&records[i])
	}
	return &ListPartiesResponse{
		Success: true,
		Parties: views,
		Pagination: &PaginationResponse{
			NextPageToken: nextToken(pageNumber, pageSize, total),
			TotalCount:    int32(total),
		},
	}, nil
}

func applyPartyPayload[M partyModel](record *M, p PartyPayload, isNew bool) {
	switch r := any(record).(type) {
	case *models.Customer:
		r.Name = p.Name
		r.GSTIN = p.GSTIN
		r.StateCode = p.StateCode
		r.Phone = p.Phone
		r.Email = p.Email
		r.Address = p.Address
		if p.IsActive != nil {
			r.IsActive = *p.IsActive
		} else if isNew {
			r.IsActive = true
		}
	case *models.Supplier:
		r.Name = p.Name
		r.GSTIN = p.GSTIN
		r.StateCode = p.StateCode
		r.Phone = p.Phone
		r.Email = p.Email
		r.Address = p.Address
		if p.IsActive != nil {
			r.IsActive = *p.IsActive
		} else if isNew {
			r.IsActive = true
		}
	}
}

func partyToView[M partyModel](record *M) *PartyView {
	switch r := any(record).(type) {
	case *models.Customer:
		return &PartyView{
			ID: r.ID, Name: r.Name, GSTIN: r.GSTIN, StateCode: r.StateCode,
			Phone: r.Phone, Email: r.Email, Address: r.Address,
			IsActive: r.IsActive, CreatedAt: r.CreatedAt,
		}
	case *models.Supplier:
		return &PartyView{
			ID: r.ID, Name: r.Name, GSTIN: r.GSTIN, StateCode: r.StateCode,
			Phone: r.Phone, Email: r.Email, Address: r.Address,
			IsActive: r.IsActive, CreatedAt: r.CreatedAt,
		}
	}
	return nil
}

func rateAllowed(rate decimal.Decimal, allowed []decimal.Decimal) bool {
	for _, r := range allowed {
		if rate.Equal(r) {
			return true
		}
	}
	return false
}

func itemToView(item *models.Item) *ItemView {
	return &ItemView{
		ID:            item.ID,
		ItemCode:      item.ItemCode,
		ItemName:      item.ItemName,
		HSNCode:       item.HSNCode,
		UnitOfMeasure: item.UnitOfMeasure,
		GSTPercent:    item.GSTPercent.StringFixed(2),
		PurchasePrice: item.PurchasePrice.StringFixed(2),
		SellingPrice:  item.SellingPrice.StringFixed(2),
		CurrentStock:  item.CurrentStock,
		MinStockLevel: item.MinStockLevel,
		IsActive:      item.IsActive,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}
