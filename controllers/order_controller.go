package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/kendall-kelly/zone-orders-api/services"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one checkout line
type OrderItemRequest struct {
	MenuItemID uint              `json:"menu_item_id" binding:"required"`
	Name       string            `json:"name"`
	Price      decimal.Decimal   `json:"price"`
	Quantity   int               `json:"quantity" binding:"required,gt=0"`
	Modifiers  []models.Modifier `json:"modifiers"`
	Notes      string            `json:"notes"`
}

// ZoneOrderRequest is the body of POST /api/v1/zones/:zoneId/orders
type ZoneOrderRequest struct {
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      decimal.Decimal    `json:"discount"`
	Tip           decimal.Decimal    `json:"tip"`
	InitialStatus string             `json:"initial_status"`
}

// SingleOrderRequest is the body of POST /api/v1/orders
type SingleOrderRequest struct {
	ShopID        uint               `json:"shop_id" binding:"required"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      decimal.Decimal    `json:"discount"`
	Tip           decimal.Decimal    `json:"tip"`
	InitialStatus string             `json:"initial_status"`
}

// UpdateStatusRequest is the body of PATCH /api/v1/orders/:id/status
type UpdateStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	Notes           string `json:"notes"`
	PaymentReversed bool   `json:"payment_reversed"`
}

// UpdateItemStatusRequest is the body of PATCH /api/v1/orders/:id/items/:index/status
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r OrderItemRequest) toItem() models.OrderItem {
	return models.OrderItem{
		MenuItemID: r.MenuItemID,
		Name:       r.Name,
		Price:      r.Price,
		Quantity:   r.Quantity,
		Modifiers:  r.Modifiers,
		Notes:      r.Notes,
	}
}

func toItems(reqs []OrderItemRequest) []models.OrderItem {
	items := make([]models.OrderItem, len(reqs))
	for i, r := range reqs {
		items[i] = r.toItem()
	}
	return items
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}

// CreateZoneOrder handles POST /api/v1/zones/:zoneId/orders - splits a checkout across the zone's shops
func CreateZoneOrder(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	customerID, ok := actor(c)
	if !ok {
		return
	}
	zoneID, ok := uintParam(c, "zoneId")
	if !ok {
		return
	}

	var req ZoneOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := svc.Checkout.ProcessZoneOrder(c.Request.Context(), services.ZoneCheckout{
		ZoneID:        zoneID,
		CustomerID:    customerID,
		Items:         toItems(req.Items),
		Discount:      req.Discount,
		Tip:           req.Tip,
		InitialStatus: models.OrderStatus(req.InitialStatus),
		PlacedBy:      customerID,
	})
	if err != nil {
		// partially created orders are returned so they can be reconciled
		if errors.Is(err, services.ErrPartialCreation) {
			respondServiceError(c, err, result)
			return
		}
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// CreateSingleOrder handles POST /api/v1/orders - places an order with one shop
func CreateSingleOrder(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	customerID, ok := actor(c)
	if !ok {
		return
	}

	var req SingleOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := svc.Checkout.CreateSingleOrder(c.Request.Context(), services.SingleCheckout{
		ShopID:        req.ShopID,
		CustomerID:    customerID,
		Items:         toItems(req.Items),
		Discount:      req.Discount,
		Tip:           req.Tip,
		InitialStatus: models.OrderStatus(req.InitialStatus),
		PlacedBy:      customerID,
	})
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := svc.Lookup.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListShopOrders handles GET /api/v1/orders/:id/shop-orders - the shop orders of a zone order
func ListShopOrders(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	children, err := svc.Lookup.ListShopOrders(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    children,
		"count":   len(children),
	})
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status - shop terminals and payment webhooks
func UpdateOrderStatus(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	updatedBy, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	if status == models.StatusRefunded && !hasScope(c, ScopeRefundOrders) {
		respondError(c, http.StatusForbidden, "INSUFFICIENT_SCOPE", "Refunds require the "+ScopeRefundOrders+" scope")
		return
	}

	result, err := svc.Status.UpdateShopOrderStatus(c.Request.Context(), services.StatusUpdate{
		OrderID:         id,
		Status:          status,
		Actor:           updatedBy,
		Notes:           req.Notes,
		PaymentReversed: req.PaymentReversed,
	})
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// UpdateItemStatus handles PATCH /api/v1/orders/:id/items/:index/status
func UpdateItemStatus(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	updatedBy, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid item index")
		return
	}

	var req UpdateItemStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := models.ParseItemStatus(req.Status)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	order, err := svc.Status.UpdateItemStatus(c.Request.Context(), services.ItemStatusUpdate{
		OrderID:   id,
		ItemIndex: index,
		Status:    status,
		Actor:     updatedBy,
	})
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// RecomputeOrder handles POST /api/v1/orders/:id/recompute - re-derives a zone order's status
func RecomputeOrder(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := svc.Aggregation.RecomputeMainStatus(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// LookupOrder handles GET /api/v1/lookup/:orderNumber - traces a printed shop order number to its zone order
func LookupOrder(c *gin.Context) {
	svc, ok := orderServices(c)
	if !ok {
		return
	}

	lookup, err := svc.Lookup.FindParentZoneOrder(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    lookup,
	})
}
