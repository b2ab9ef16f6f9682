package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vanik-system/config"
	"vanik-system/internal/audit"
	"vanik-system/internal/database/models"
	"vanik-system/internal/gate"
	"vanik-system/internal/gateway/middleware"
	"vanik-system/internal/gst"
	billing "vanik-system/internal/services/billing/handler"
	"vanik-system/internal/sequence"
	"vanik-system/internal/stockledger"
)

type gatewayFixture struct {
	router *gin.Engine
	doc    *billing.DocumentView
}

func setupBillingGatewayTest(t *testing.T) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.Item{}, &models.Customer{}, &models.Supplier{},
		&models.LedgerEntry{}, &models.Document{}, &models.DocumentLine{},
		&models.SequenceCounter{}, &models.AuditLog{},
	))

	role := models.Role{RoleName: "admin", AccessLevel: 9, Permissions: "*:*"}
	require.NoError(t, db.Create(&role).Error)
	item := models.Item{
		ItemCode:     "PEN-01",
		ItemName:     "Ball Pen",
		HSNCode:      "9608",
		GSTPercent:   decimal.NewFromInt(18),
		SellingPrice: decimal.NewFromInt(20),
		CurrentStock: 50,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&item).Error)

	cfg := config.GSTConfig{
		HomeStateCode:  "27",
		InvoicePrefix:  "INV",
		PurchasePrefix: "PUR",
		AllowedRates:   gst.DefaultRates,
	}
	service := billing.NewBillingHandler(
		db,
		stockledger.NewCoordinator(db),
		sequence.NewGenerator(cfg.Prefixes()),
		gate.NewChecker(db),
		audit.NewWriter(db),
		nil,
		cfg,
	)

	saved, err := service.SaveInvoice(context.Background(), &billing.SaveDocumentRequest{
		IssueDate: time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		Status:    models.StatusCompleted,
		Lines:     []billing.LineRequest{{ItemID: item.ID, Quantity: 3}},
		ActorID:   1,
		RoleID:    role.ID,
	})
	require.NoError(t, err)

	h := NewBillingHTTPHandler(service)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, int64(1))
		c.Set(middleware.ContextRoleID, role.ID)
	})
	documents := router.Group("/documents")
	documents.GET("", h.ListDocuments)
	documents.GET("/lookup", h.LookupDocument)
	documents.GET("/:id", h.GetDocument)

	return &gatewayFixture{router: router, doc: saved.Document}
}

func (f *gatewayFixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestLookupDocumentByNumber(t *testing.T) {
	f := setupBillingGatewayTest(t)

	w, body := f.get(t, "/documents/lookup?number="+url.QueryEscape(f.doc.DocumentNumber))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)

	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, f.doc.DocumentNumber, data["document_number"])
}

func TestLookupDocumentRequiresNumber(t *testing.T) {
	f := setupBillingGatewayTest(t)

	w, body := f.get(t, "/documents/lookup")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
}

func TestGetDocumentByID(t *testing.T) {
	f := setupBillingGatewayTest(t)

	w, body := f.get(t, fmt.Sprintf("/documents/%d", f.doc.ID))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)

	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, f.doc.DocumentNumber, data["document_number"])
}

func TestGetDocumentRejectsNonNumericID(t *testing.T) {
	f := setupBillingGatewayTest(t)

	w, body := f.get(t, "/documents/not-a-number")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
}
