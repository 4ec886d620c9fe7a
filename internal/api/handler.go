package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"purchase-service/internal/service"
	"purchase-service/internal/store"
	"purchase-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	purchaseService *service.PurchaseService
	saleService     *service.SaleService
	statsService    *service.StatsService
	resyncService   *service.ResyncService
	store           *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	purchaseService *service.PurchaseService,
	saleService *service.SaleService,
	statsService *service.StatsService,
	resyncService *service.ResyncService,
	store *store.Store,
) *Handler {
	return &Handler{
		purchaseService: purchaseService,
		saleService:     saleService,
		statsService:    statsService,
		resyncService:   resyncService,
		store:           store,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/purchases", h.createPurchase)
		v1.GET("/purchases", h.listPurchases)
		v1.GET("/purchases/:id", h.getPurchase)
		v1.PUT("/purchases/:id", h.updatePurchase)
		v1.DELETE("/purchases/:id", h.deletePurchase)
		v1.GET("/purchases/:id/matching-status", h.matchingStatus)

		v1.GET("/items", h.listItems)

		v1.POST("/sales", h.createSale)
		v1.GET("/sales", h.listSales)
		v1.PUT("/sales/:id", h.updateSale)
		v1.DELETE("/sales/:id", h.deleteSale)

		v1.GET("/dashboard", h.dashboard)

		v1.POST("/resync", h.startResync)
		v1.GET("/resync/status", h.resyncStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createPurchase handles purchase creation
func (h *Handler) createPurchase(c *gin.Context) {
	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create purchase")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"purchase": purchase})
}

// listPurchases handles the paginated purchase listing
func (h *Handler) listPurchases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err, "Failed to list purchases")
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases, "total": total})
}

// getPurchase handles get purchase by ID
func (h *Handler) getPurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": purchase})
}

// updatePurchase handles purchase edits
func (h *Handler) updatePurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	purchase, err := h.purchaseService.UpdatePurchase(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": purchase})
}

// deletePurchase handles purchase deletion
func (h *Handler) deletePurchase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.purchaseService.DeletePurchase(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Purchase deleted"})
}

// matchingStatus reports reconciliation progress for a purchase
func (h *Handler) matchingStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	status, err := h.purchaseService.GetMatchingStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load matching status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// listItems returns the canonical item ledger sorted by name
func (h *Handler) listItems(c *gin.Context) {
	items, err := h.store.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// createSale handles sale creation
func (h *Handler) createSale(c *gin.Context) {
	var req service.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create sale")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sale": sale})
}

// listSales handles the sale listing
func (h *Handler) listSales(c *gin.Context) {
	sales, err := h.saleService.ListSales(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list sales")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

// updateSale handles sale edits
func (h *Handler) updateSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sale, err := h.saleService.UpdateSale(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update sale")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sale": sale})
}

// deleteSale handles sale deletion
func (h *Handler) deleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete sale")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted"})
}

// dashboard returns the raw-totals overview
func (h *Handler) dashboard(c *gin.Context) {
	overview, err := h.statsService.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": overview})
}

// startResync triggers a full ledger rebuild
func (h *Handler) startResync(c *gin.Context) {
	if err := h.resyncService.Start(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to start resync")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Resync started"})
}

// resyncStatus reports rebuild progress
func (h *Handler) resyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.resyncService.Status())
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrResyncInProgress):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
