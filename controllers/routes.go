package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/zone-orders-api/middleware"
)

// Token scopes checked by the order routes
const (
	ScopeUpdateOrders = "update:orders"
	ScopeRefundOrders = "refund:orders"
	ScopeReadSupport  = "read:support"
)

// RegisterOrderRoutes mounts the order endpoints on rg. auth must put the caller's
// subject and claims on the context, as middleware.EnsureValidToken does.
func RegisterOrderRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	orders := rg.Group("", auth)
	{
		orders.POST("/zones/:zoneId/orders", CreateZoneOrder)
		orders.POST("/orders", CreateSingleOrder)
		orders.GET("/orders/:id", GetOrder)
		orders.GET("/orders/:id/shop-orders", ListShopOrders)

		orders.PATCH("/orders/:id/status", middleware.RequireScope(ScopeUpdateOrders), UpdateOrderStatus)
		orders.PATCH("/orders/:id/items/:index/status", middleware.RequireScope(ScopeUpdateOrders), UpdateItemStatus)
		orders.POST("/orders/:id/recompute", middleware.RequireScope(ScopeUpdateOrders), RecomputeOrder)

		orders.GET("/lookup/:orderNumber", middleware.RequireScope(ScopeReadSupport), LookupOrder)
	}
}
