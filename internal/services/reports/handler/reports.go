package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vanik-system/config"
	"vanik-system/internal/database/models"
	"vanik-system/internal/gate"
	"vanik-system/internal/gst"
)

const (
	HSN_REPORT_CACHE_PREFIX = "reports:hsn:"
	REPORT_CACHE_TTL        = 30 * time.Minute
)

const PermissionReportsView = "reports:view"

var ErrFiscalYearRequired = errors.New("fiscal year required")

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type HSNReportRequest struct {
	FiscalYear    string                `json:"fiscal_year"`
	DocumentClass *models.DocumentClass `json:"document_class,omitempty"`

	RoleID int32 `json:"-"`
}

type HSNReportRow struct {
	HSNCode       string `json:"hsn_code"`
	Quantity      int    `json:"quantity"`
	TaxableAmount string `json:"taxable_amount"`
	CGST          string `json:"cgst"`
	SGST          string `json:"sgst"`
	IGST          string `json:"igst"`
}

type HSNReportResponse struct {
	Success    bool           `json:"success"`
	Message    *string        `json:"message,omitempty"`
	FiscalYear string         `json:"fiscal_year"`
	Rows       []HSNReportRow `json:"rows"`
}

// ReportsHandler serves compliance reads. Reports aggregate completed
// documents only; drafts and cancelled documents never reach a filing.
type ReportsHandler struct {
	db     *gorm.DB
	gate   *gate.Checker
	redis  *redis.Client
	logger *logrus.Logger
}

func NewReportsHandler(db *gorm.DB, checker *gate.Checker, redisClient *redis.Client) *ReportsHandler {
	return &ReportsHandler{
		db:     db,
		gate:   checker,
		redis:  redisClient,
		logger: config.GetLogger(),
	}
}

func (s *ReportsHandler) InvalidateReportCaches(ctx context.Context, fiscalYears ...string) {
	if s.redis == nil {
		return
	}
	for _, fy := range fiscalYears {
		for _, class := range []models.DocumentClass{models.ClassInvoice, models.ClassPurchase} {
			if err := s.redis.Del(ctx, hsnCacheKey(fy, &class)).Err(); err != nil {
				s.logger.WithField("error", err.Error()).Warn("report cache invalidation failed")
			}
		}
		if err := s.redis.Del(ctx, hsnCacheKey(fy, nil)).Err(); err != nil {
			s.logger.WithField("error", err.Error()).Warn("report cache invalidation failed")
		}
	}
}

// HSNReport aggregates quantity and tax per HSN code across the completed
// documents of one fiscal year.
func (s *ReportsHandler) HSNReport(ctx context.Context, req *HSNReportRequest) (*HSNReportResponse, error) {
	if err := s.gate.Require(req.RoleID, PermissionReportsView); err != nil {
		return &HSNReportResponse{Success: false, Message: strPtr("permission denied")}, err
	}
	if req.FiscalYear == "" {
		return &HSNReportResponse{Success: false, Message: strPtr("fiscal_year required")}, ErrFiscalYearRequired
	}

	cacheKey := hsnCacheKey(req.FiscalYear, req.DocumentClass)
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached HSNReportResponse
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.logger.WithField("error", err.Error()).Warn("redis read failed, falling back to db")
		}
	}

	docQuery := s.db.Model(&models.Document{}).
		Select("id").
		Where("fiscal_year = ? AND status = ?", req.FiscalYear, models.StatusCompleted)
	if req.DocumentClass != nil {
		docQuery = docQuery.Where("document_class = ?", *req.DocumentClass)
	} else {
		docQuery = docQuery.Where("document_class = ?", models.ClassInvoice)
	}

	var lines []models.DocumentLine
	if err := s.db.Where("document_id IN (?)", docQuery).Order("id ASC").Find(&lines).Error; err != nil {
		config.LogError(s.logger, "reports", "HSNReport", "load document lines", req.FiscalYear, err)
		return &HSNReportResponse{Success: false, Message: strPtr("database error")}, err
	}

	amounts := make([]gst.LineAmounts, len(lines))
	for i, l := range lines {
		amounts[i] = gst.LineAmounts{
			Line: gst.Line{
				ItemID:     l.ItemID,
				ItemName:   l.ItemName,
				HSNCode:    l.HSNCode,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				GSTPercent: l.GSTPercent,
			},
			TaxableAmount: l.TaxableAmount,
			CGST:          l.CGST,
			SGST:          l.SGST,
			IGST:          l.IGST,
			LineTotal:     l.LineTotal,
		}
	}

	rows := make([]HSNReportRow, 0)
	for _, g := range gst.HSNSummary(amounts) {
		rows = append(rows, HSNReportRow{
			HSNCode:       g.HSNCode,
			Quantity:      g.Quantity,
			TaxableAmount: g.TaxableAmount.StringFixed(2),
			CGST:          g.CGST.StringFixed(2),
			SGST:          g.SGST.StringFixed(2),
			IGST:          g.IGST.StringFixed(2),
		})
	}

	resp := &HSNReportResponse{Success: true, FiscalYear: req.FiscalYear, Rows: rows}

	if s.redis != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, REPORT_CACHE_TTL).Err(); err != nil {
				s.logger.WithField("error", err.Error()).Warn("report cache write failed")
			}
		}
	}
	return resp, nil
}

type StockValuationRow struct {
	ItemID        int64  `json:"item_id"`
	ItemCode      string `json:"item_code"`
	ItemName      string `json:"item_name"`
	CurrentStock  int    `json:"current_stock"`
	PurchasePrice string `json:"purchase_price"`
	StockValue    string `json:"stock_value"`
}

type StockValuationResponse struct {
	Success    bool                `json:"success"`
	Message    *string             `json:"message,omitempty"`
	Rows       []StockValuationRow `json:"rows"`
	TotalValue string              `json:"total_value"`
}

// StockValuation prices every active item's balance at its purchase price.
func (s *ReportsHandler) StockValuation(ctx context.Context, roleID int32) (*StockValuationResponse, error) {
	if err := s.gate.Require(roleID, PermissionReportsView); err != nil {
		return &StockValuationResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var items []models.Item
	if err := s.db.Where("is_active = ?", true).Order("item_code ASC").Find(&items).Error; err != nil {
		return &StockValuationResponse{Success: false, Message: strPtr("database error")}, err
	}

	rows := make([]StockValuationRow, len(items))
	total := decimal.Zero
	for i, item := range items {
		value := item.PurchasePrice.Mul(decimal.NewFromInt(int64(item.CurrentStock)))
		total = total.Add(value)
		rows[i] = StockValuationRow{
			ItemID:        item.ID,
			ItemCode:      item.ItemCode,
			ItemName:      item.ItemName,
			CurrentStock:  item.CurrentStock,
			PurchasePrice: item.PurchasePrice.StringFixed(2),
			StockValue:    value.StringFixed(2),
		}
	}

	return &StockValuationResponse{Success: true, Rows: rows, TotalValue: total.StringFixed(2)}, nil
}

func hsnCacheKey(fiscalYear string, class *models.DocumentClass) string {
	if class == nil {
		return HSN_REPORT_CACHE_PREFIX + fiscalYear
	}
	return HSN_REPORT_CACHE_PREFIX + fiscalYear + ":" + string(*class)
}
