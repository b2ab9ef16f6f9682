package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vanik-system/config"
	"vanik-system/internal/audit"
	"vanik-system/internal/database/models"
	"vanik-system/internal/gate"
	"vanik-system/internal/gst"
	"vanik-system/internal/sequence"
	"vanik-system/internal/stockledger"
)

var (
	ErrDocumentNotFound       = errors.New("document not found")
	ErrNoLineItems            = errors.New("document must carry at least one line item")
	ErrInvalidStateTransition = errors.New("invalid document state transition")
)

const (
	PermissionBillingCreate = "billing:create"
	PermissionBillingCancel = "billing:cancel"
	PermissionBillingView   = "billing:view"
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type LineRequest struct {
	ItemID          int64            `json:"item_id"`
	Quantity        int              `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPerUnit decimal.Decimal  `json:"discount_per_unit"`
}

type SaveDocumentRequest struct {
	DocumentID *int64                `json:"document_id,omitempty"`
	PartyID    *int64                `json:"party_id,omitempty"`
	IssueDate  time.Time             `json:"issue_date"`
	Status     models.DocumentStatus `json:"status"`
	Notes      *string               `json:"notes,omitempty"`
	Lines      []LineRequest         `json:"lines"`

	ActorID int64 `json:"-"`
	RoleID  int32 `json:"-"`
}

type SaveDocumentResponse struct {
	Success  bool          `json:"success"`
	Message  *string       `json:"message,omitempty"`
	Document *DocumentView `json:"document,omitempty"`
}

type CancelDocumentRequest struct {
	DocumentID int64 `json:"document_id"`

	ActorID int64 `json:"-"`
	RoleID  int32 `json:"-"`
}

type CancelDocumentResponse struct {
	Success  bool          `json:"success"`
	Message  *string       `json:"message,omitempty"`
	Document *DocumentView `json:"document,omitempty"`
}

type GetDocumentRequest struct {
	ID             int64  `json:"id,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`

	RoleID int32 `json:"-"`
}

type GetDocumentResponse struct {
	Success  bool          `json:"success"`
	Message  *string       `json:"message,omitempty"`
	Document *DocumentView `json:"document,omitempty"`
}

type PaginationRequest struct {
	PageSize  int32  `json:"page_size"`
	PageToken string `json:"page_token"`
}

type PaginationResponse struct {
	NextPageToken string `json:"next_page_token"`
	TotalCount    int32  `json:"total_count"`
}

type ListDocumentsRequest struct {
	DocumentClass *models.DocumentClass  `json:"document_class,omitempty"`
	Status        *models.DocumentStatus `json:"status,omitempty"`
	FiscalYear    *string                `json:"fiscal_year,omitempty"`
	PartyID       *int64                 `json:"party_id,omitempty"`
	Pagination    PaginationRequest      `json:"pagination"`

	RoleID int32 `json:"-"`
}

type ListDocumentsResponse struct {
	Success    bool                `json:"success"`
	Message    *string             `json:"message,omitempty"`
	Documents  []*DocumentView     `json:"documents"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}

type DocumentLineView struct {
	ItemID          int64  `json:"item_id"`
	ItemName        string `json:"item_name"`
	HSNCode         string `json:"hsn_code"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	DiscountPerUnit string `json:"discount_per_unit"`
	GSTPercent      string `json:"gst_percent"`
	TaxableAmount   string `json:"taxable_amount"`
	CGST            string `json:"cgst"`
	SGST            string `json:"sgst"`
	IGST            string `json:"igst"`
	LineTotal       string `json:"line_total"`
}

type DocumentView struct {
	ID             int64                 `json:"id"`
	DocumentNumber string                `json:"document_number"`
	DocumentClass  models.DocumentClass  `json:"document_class"`
	FiscalYear     string                `json:"fiscal_year"`
	PartyID        *int64                `json:"party_id,omitempty"`
	IssueDate      time.Time             `json:"issue_date"`
	IsInterState   bool                  `json:"is_inter_state"`
	Status         models.DocumentStatus `json:"status"`
	Subtotal       string                `json:"subtotal"`
	TotalCGST      string                `json:"total_cgst"`
	TotalSGST      string                `json:"total_sgst"`
	TotalIGST      string                `json:"total_igst"`
	RoundOff       string                `json:"round_off"`
	GrandTotal     string                `json:"grand_total"`
	Notes          *string               `json:"notes,omitempty"`
	Lines          []DocumentLineView    `json:"lines"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ReportCacheInvalidator drops cached report payloads for the fiscal years a
// document write touched.
type ReportCacheInvalidator interface {
	InvalidateReportCaches(ctx context.Context, fiscalYears ...string)
}

// BillingHandler drives the document state machine. Every mutating path runs
// under the stock ledger coordinator's serialized transaction so number
// allocation, document persistence and stock movement commit or roll back
// as one unit.
type BillingHandler struct {
	db          *gorm.DB
	ledger      *stockledger.Coordinator
	seq         *sequence.Generator
	gate        *gate.Checker
	auditor     *audit.Writer
	logger      *logrus.Logger
	reportCache ReportCacheInvalidator

	homeStateCode string
	allowedRates  []decimal.Decimal
}

func NewBillingHandler(db *gorm.DB, ledger *stockledger.Coordinator, seq *sequence.Generator, checker *gate.Checker, auditor *audit.Writer, reportCache ReportCacheInvalidator, cfg config.GSTConfig) *BillingHandler {
	rates := cfg.AllowedRates
	if len(rates) == 0 {
		rates = gst.DefaultRates
	}
	return &BillingHandler{
		db:            db,
		ledger:        ledger,
		seq:           seq,
		gate:          checker,
		auditor:       auditor,
		logger:        config.GetLogger(),
		reportCache:   reportCache,
		homeStateCode: cfg.HomeStateCode,
		allowedRates:  rates,
	}
}

func (s *BillingHandler) SaveInvoice(ctx context.Context, req *SaveDocumentRequest) (*SaveDocumentResponse, error) {
	return s.saveDocument(ctx, models.ClassInvoice, req)
}

func (s *BillingHandler) SavePurchase(ctx context.Context, req *SaveDocumentRequest) (*SaveDocumentResponse, error) {
	return s.saveDocument(ctx, models.ClassPurchase, req)
}

func (s *BillingHandler) saveDocument(ctx context.Context, class models.DocumentClass, req *SaveDocumentRequest) (*SaveDocumentResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionBillingCreate); err != nil {
		return &SaveDocumentResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	if req.Status != models.StatusDraft && req.Status != models.StatusCompleted {
		return &SaveDocumentResponse{
			Success: false,
			Message: strPtr(fmt.Sprintf("cannot save a document as %s", req.Status)),
		}, ErrInvalidStateTransition
	}
	if len(req.Lines) == 0 {
		return &SaveDocumentResponse{Success: false, Message: strPtr("at least one line item required")}, ErrNoLineItems
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	var (
		doc      models.Document
		previous *DocumentView
	)
	err := s.ledger.RunSerialized(func(tx *gorm.DB) error {
		if req.DocumentID != nil {
			existing, err := s.loadDocument(tx, *req.DocumentID, "")
			if err != nil {
				return err
			}
			if existing.DocumentClass != class {
				return ErrDocumentNotFound
			}
			if !existing.Status.CanTransitionTo(req.Status) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidStateTransition, existing.Status, req.Status)
			}
			snapshot := documentToView(existing)
			previous = snapshot
			doc = *existing
		}

		interState, err := s.resolveInterState(tx, class, req.PartyID)
		if err != nil {
			return err
		}

		gstLines, err := s.buildLines(tx, class, req.Lines)
		if err != nil {
			return err
		}

		amounts := make([]gst.LineAmounts, len(gstLines))
		for i, l := range gstLines {
			amounts[i] = gst.ComputeLine(l, interState)
		}
		totals := gst.DocumentTotals(amounts)

		// surface every shortfall before a number is consumed
		if class == models.ClassInvoice && req.Status == models.StatusCompleted {
			if err := s.ledger.ValidateSale(tx, toLedgerLines(amounts)); err != nil {
				return err
			}
		}

		fiscalYear := gst.FiscalYearLabel(issueDate)
		if doc.DocumentNumber == "" {
			number, err := s.allocateNumber(tx, class, issueDate)
			if err != nil {
				return err
			}
			doc.DocumentNumber = number
			doc.FiscalYear = fiscalYear
			doc.CreatedBy = req.ActorID
		}

		doc.DocumentClass = class
		doc.PartyID = req.PartyID
		doc.IssueDate = issueDate
		doc.IsInterState = interState
		doc.Status = req.Status
		doc.Subtotal = totals.Subtotal
		doc.TotalCGST = totals.TotalCGST
		doc.TotalSGST = totals.TotalSGST
		doc.TotalIGST = totals.TotalIGST
		doc.RoundOff = totals.RoundOff
		doc.GrandTotal = totals.GrandTotal
		doc.Notes = req.Notes
		doc.Lines = nil

		if err := tx.Save(&doc).Error; err != nil {
			return fmt.Errorf("persist document: %w", err)
		}

		// a draft re-save replaces its lines wholesale
		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentLine{}).Error; err != nil {
			return fmt.Errorf("clear document lines: %w", err)
		}
		lines := make([]models.DocumentLine, len(amounts))
		for i, a := range amounts {
			lines[i] = models.DocumentLine{
				DocumentID:      doc.ID,
				ItemID:          a.Line.ItemID,
				ItemName:        a.Line.ItemName,
				HSNCode:         a.Line.HSNCode,
				Quantity:        a.Line.Quantity,
				UnitPrice:       a.Line.UnitPrice,
				DiscountPerUnit: a.Line.DiscountPerUnit,
				GSTPercent:      a.Line.GSTPercent,
				TaxableAmount:   a.TaxableAmount,
				CGST:            a.CGST,
				SGST:            a.SGST,
				IGST:            a.IGST,
				LineTotal:       a.LineTotal,
			}
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("persist document lines: %w", err)
		}
		doc.Lines = lines

		if req.Status == models.StatusCompleted {
			ledgerLines := toLedgerLines(amounts)
			if class == models.ClassInvoice {
				if err := s.ledger.ApplySale(tx, ledgerLines, doc.DocumentNumber, req.ActorID); err != nil {
					return err
				}
			} else {
				if err := s.ledger.ApplyPurchase(tx, ledgerLines, doc.DocumentNumber, req.ActorID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return &SaveDocumentResponse{Success: false, Message: strPtr(saveFailureMessage(err))}, err
	}

	view := documentToView(&doc)
	action := fmt.Sprintf("document.%s.%s", class, req.Status)
	s.auditor.Record(nil, req.ActorID, action, "document", doc.DocumentNumber, previous, view)

	// completed documents feed the compliance reports; drafts never do
	if s.reportCache != nil && req.Status == models.StatusCompleted {
		s.reportCache.InvalidateReportCaches(ctx, doc.FiscalYear)
	}

	return &SaveDocumentResponse{Success: true, Document: view}, nil
}

// CancelDocument moves a draft or completed document to cancelled. Completed
// documents get compensating ledger entries first; cancelling an already
// cancelled document is rejected so the caller learns nothing happened.
func (s *BillingHandler) CancelDocument(ctx context.Context, req *CancelDocumentRequest) (*CancelDocumentResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionBillingCancel); err != nil {
		return &CancelDocumentResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var (
		doc      *models.Document
		previous *DocumentView
	)
	err := s.ledger.RunSerialized(func(tx *gorm.DB) error {
		loaded, err := s.loadDocument(tx, req.DocumentID, "")
		if err != nil {
			return err
		}
		doc = loaded
		previous = documentToView(doc)

		if !doc.Status.CanTransitionTo(models.StatusCancelled) {
			return fmt.Errorf("%w: %s to cancelled", ErrInvalidStateTransition, doc.Status)
		}

		if doc.Status == models.StatusCompleted {
			if err := s.ledger.Reverse(tx, doc.DocumentNumber, req.ActorID); err != nil {
				return err
			}
		}

		doc.Status = models.StatusCancelled
		if err := tx.Model(&models.Document{}).
			Where("id = ?", doc.ID).
			Update("status", models.StatusCancelled).Error; err != nil {
			return fmt.Errorf("persist cancellation: %w", err)
		}
		return nil
	})
	if err != nil {
		return &CancelDocumentResponse{Success: false, Message: strPtr(saveFailureMessage(err))}, err
	}

	view := documentToView(doc)
	s.auditor.Record(nil, req.ActorID, "document.cancel", "document", doc.DocumentNumber, previous, view)

	if s.reportCache != nil && previous.Status == models.StatusCompleted {
		s.reportCache.InvalidateReportCaches(ctx, doc.FiscalYear)
	}

	return &CancelDocumentResponse{Success: true, Document: view}, nil
}

func (s *BillingHandler) GetDocument(ctx context.Context, req *GetDocumentRequest) (*GetDocumentResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionBillingView); err != nil {
		return &GetDocumentResponse{Success: false, Message: strPtr("permission denied")}, err
	}
	if req.ID == 0 && req.DocumentNumber == "" {
		return &GetDocumentResponse{Success: false, Message: strPtr("id or document_number required")}, nil
	}

	doc, err := s.loadDocument(s.db, req.ID, req.DocumentNumber)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return &GetDocumentResponse{Success: false, Message: strPtr("document not found")}, err
		}
		return &GetDocumentResponse{Success: false, Message: strPtr("database error")}, err
	}

	return &GetDocumentResponse{Success: true, Document: documentToView(doc)}, nil
}

func (s *BillingHandler) ListDocuments(ctx context.Context, req *ListDocumentsRequest) (*ListDocumentsResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionBillingView); err != nil {
		return &ListDocumentsResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	query := s.db.Model(&models.Document{}).Preload("Lines")
	if req.DocumentClass != nil {
		query = query.Where("document_class = ?", *req.DocumentClass)
	}
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if req.FiscalYear != nil {
		query = query.Where("fiscal_year = ?", *req.FiscalYear)
	}
	if req.PartyID != nil {
		query = query.Where("party_id = ?", *req.PartyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return &ListDocumentsResponse{Success: false, Message: strPtr("database error")}, err
	}

	pageSize := int(req.Pagination.PageSize)
	if pageSize <= 0 {
		pageSize = 10
	}
	pageNumber := 1
	if token := req.Pagination.PageToken; token != "" {
		if n, err := strconv.Atoi(token); err == nil && n > 0 {
			pageNumber = n
		}
	}
	offset := (pageNumber - 1) * pageSize

	var docs []models.Document
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&docs).Error; err != nil {
		return &ListDocumentsResponse{Success: false, Message: strPtr("database error")}, err
	}

	views := make([]*DocumentView, len(docs))
	for i := range docs {
		views[i] = documentToView(&docs[i])
	}

	nextPageToken := ""
	if int64(pageNumber*pageSize) < total {
		nextPageToken = strconv.Itoa(pageNumber + 1)
	}

	return &ListDocumentsResponse{
		Success:   true,
		Documents: views,
		Pagination: &PaginationResponse{
			NextPageToken: nextPageToken,
			TotalCount:    int32(total),
		},
	}, nil
}

// allocateNumber reserves the next document number, re-allocating once if the
// persisted-document guard reports a collision.
func (s *BillingHandler) allocateNumber(tx *gorm.DB, class models.DocumentClass, issueDate time.Time) (string, error) {
	number, err := s.seq.Allocate(tx, class, issueDate)
	if err != nil {
		return "", err
	}
	exists, err := sequence.NumberExists(tx, number)
	if err != nil {
		return "", err
	}
	if !exists {
		return number, nil
	}

	s.logger.WithFields(logrus.Fields{
		"document_class": class,
		"number":         number,
	}).Warn("document number collision, re-allocating")

	number, err = s.seq.Allocate(tx, class, issueDate)
	if err != nil {
		return "", err
	}
	exists, err = sequence.NumberExists(tx, number)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s", sequence.ErrDuplicateDocumentNumber, number)
	}
	return number, nil
}

// buildLines resolves each requested line against the item registry. Invoices
// price from the selling price, purchases from the purchase price, unless the
// request carries an explicit unit price.
func (s *BillingHandler) buildLines(tx *gorm.DB, class models.DocumentClass, reqs []LineRequest) ([]gst.Line, error) {
	lines := make([]gst.Line, len(reqs))
	for i, r := range reqs {
		var item models.Item
		if err := tx.First(&item, r.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown item %d", gst.ErrInvalidLineItem, r.ItemID)
			}
			return nil, fmt.Errorf("read item %d: %w", r.ItemID, err)
		}

		unitPrice := item.SellingPrice
		if class == models.ClassPurchase {
			unitPrice = item.PurchasePrice
		}
		if r.UnitPrice != nil {
			unitPrice = *r.UnitPrice
		}

		line := gst.Line{
			ItemID:          item.ID,
			ItemName:        item.ItemName,
			HSNCode:         item.HSNCode,
			Quantity:        r.Quantity,
			UnitPrice:       unitPrice,
			DiscountPerUnit: r.DiscountPerUnit,
			GSTPercent:      item.GSTPercent,
		}
		if err := gst.ValidateLine(line, s.allowedRates); err != nil {
			return nil, err
		}
		lines[i] = line
	}
	return lines, nil
}

// resolveInterState compares the counterparty's state code against the home
// state. A missing party means an over-the-counter sale in the home state.
func (s *BillingHandler) resolveInterState(tx *gorm.DB, class models.DocumentClass, partyID *int64) (bool, error) {
	if partyID == nil {
		return false, nil
	}
	var stateCode string
	if class == models.ClassInvoice {
		var customer models.Customer
		if err := tx.First(&customer, *partyID).Error; err != nil {
			return false, fmt.Errorf("read customer %d: %w", *partyID, err)
		}
		stateCode = customer.StateCode
	} else {
		var supplier models.Supplier
		if err := tx.First(&supplier, *partyID).Error; err != nil {
			return false, fmt.Errorf("read supplier %d: %w", *partyID, err)
		}
		stateCode = supplier.StateCode
	}
	return stateCode != "" && stateCode != s.homeStateCode, nil
}

func (s *BillingHandler) loadDocument(tx *gorm.DB, id int64, number string) (*models.Document, error) {
	var doc models.Document
	query := tx.Preload("Lines")
	var err error
	if id != 0 {
		err = query.First(&doc, id).Error
	} else {
		err = query.Where("document_number = ?", number).First(&doc).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func toLedgerLines(amounts []gst.LineAmounts) []stockledger.Line {
	lines := make([]stockledger.Line, len(amounts))
	for i, a := range amounts {
		lines[i] = stockledger.Line{
			ItemID:   a.Line.ItemID,
			ItemName: a.Line.ItemName,
			Quantity: a.Line.Quantity,
		}
	}
	return lines
}

func saveFailureMessage(err error) string {
	switch {
	case errors.Is(err, stockledger.ErrInsufficientStock):
		return err.Error()
	case errors.Is(err, gst.ErrInvalidLineItem):
		return err.Error()
	case errors.Is(err, ErrInvalidStateTransition):
		return err.Error()
	case errors.Is(err, ErrDocumentNotFound):
		return "document not found"
	case errors.Is(err, sequence.ErrDuplicateDocumentNumber):
		return "document number collision"
	default:
		return "database error"
	}
}

func documentToView(doc *models.Document) *DocumentView {
	view := &DocumentView{
		ID:             doc.ID,
		DocumentNumber: doc.DocumentNumber,
		DocumentClass:  doc.DocumentClass,
		FiscalYear:     doc.FiscalYear,
		PartyID:        doc.PartyID,
		IssueDate:      doc.IssueDate,
		IsInterState:   doc.IsInterState,
		Status:         doc.Status,
		Subtotal:       doc.Subtotal.StringFixed(2),
		TotalCGST:      doc.TotalCGST.StringFixed(2),
		TotalSGST:      doc.TotalSGST.StringFixed(2),
		TotalIGST:      doc.TotalIGST.StringFixed(2),
		RoundOff:       doc.RoundOff.StringFixed(2),
		GrandTotal:     doc.GrandTotal.StringFixed(2),
		Notes:          doc.Notes,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	view.Lines = make([]DocumentLineView, len(doc.Lines))
	for i, l := range doc.Lines {
		view.Lines[i] = DocumentLineView{
			ItemID:          l.ItemID,
			ItemName:        l.ItemName,
			HSNCode:         l.HSNCode,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice.StringFixed(2),
			DiscountPerUnit: l.DiscountPerUnit.StringFixed(2),
			GSTPercent:      l.GSTPercent.StringFixed(2),
			TaxableAmount:   l.TaxableAmount.StringFixed(2),
			CGST:            l.CGST.StringFixed(2),
			SGST:            l.SGST.StringFixed(2),
			IGST:            l.IGST.StringFixed(2),
			LineTotal:       l.LineTotal.StringFixed(2),
		}
	}
	return view
}
