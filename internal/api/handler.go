package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"price-tracker-bot/internal/monitor"
	"price-tracker-bot/internal/scheduler"
	"price-tracker-bot/internal/types"
)

// Store is the slice of the persistence layer the CRUD API needs.
type Store interface {
	CreateProduct(name, url string, targetPrice float64) (*types.Product, error)
	GetProduct(id int64) (*types.Product, error)
	GetAllProducts() ([]types.Product, error)
	UpdateProduct(id int64, targetPrice float64, isActive bool) error
	DeleteProduct(id int64) error
	GetPriceHistory(productID int64, limit int) ([]types.PricePoint, error)
}

// Trigger starts one monitoring run on demand.
type Trigger interface {
	TriggerNow(ctx context.Context) error
}

type Handler struct {
	store   Store
	trigger Trigger
	runner  *monitor.Runner
}

func NewHandler(store Store, trigger Trigger, runner *monitor.Runner) *Handler {
	return &Handler{store: store, trigger: trigger, runner: runner}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.POST("/products", h.CreateProduct)
		api.GET("/products/:id", h.GetProduct)
		api.PUT("/products/:id", h.UpdateProduct)
		api.DELETE("/products/:id", h.DeleteProduct)
		api.GET("/products/:id/history", h.GetPriceHistory)
		api.POST("/check", h.CheckNow)
	}
}

type createProductInput struct {
	Name        string  `json:"name" binding:"required"`
	URL         string  `json:"url" binding:"required,url"`
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var input createProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: name, url and a positive target_price are required"})
		return
	}

	p, err := h.store.CreateProduct(input.Name, input.URL, input.TargetPrice)
	if err != nil {
		log.Errorf("CreateProduct: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.store.GetAllProducts()
	if err != nil {
		log.Errorf("ListProducts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	if products == nil {
		products = []types.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	p, err := h.store.GetProduct(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		log.Errorf("GetProduct: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateProductInput struct {
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
	IsActive    *bool   `json:"is_active" binding:"required"`
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	var input updateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: positive target_price and is_active are required"})
		return
	}

	if err := h.store.UpdateProduct(id, input.TargetPrice, *input.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		log.Errorf("UpdateProduct: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}

	p, err := h.store.GetProduct(id)
	if err != nil {
		log.Errorf("UpdateProduct: reload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteProduct(id); err != nil {
		log.Errorf("DeleteProduct: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	history, err := h.store.GetPriceHistory(id, 200)
	if err != nil {
		log.Errorf("GetPriceHistory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if history == nil {
		history = []types.PricePoint{}
	}
	c.JSON(http.StatusOK, history)
}

// CheckNow runs one monitoring pass and returns its report. Equivalent to a
// scheduled firing; rejected while another run is in flight.
func (h *Handler) CheckNow(c *gin.Context) {
	err := h.trigger.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "a monitoring run is already in flight"})
			return
		}
		log.Errorf("CheckNow: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "monitoring run failed"})
		return
	}

	var report *monitor.Report
	if h.runner != nil {
		report = h.runner.LastReport()
	}
	if report == nil {
		c.JSON(http.StatusOK, gin.H{"message": "monitoring run completed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checked":  report.Checked,
		"failed":   report.Failed,
		"notified": report.Notified,
		"duration": report.Duration.String(),
	})
}

func (h *Handler) productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
