package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/zone-orders-api/middleware"
	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/kendall-kelly/zone-orders-api/services"
)

// errorMapping ties a service error to its HTTP status and error code.
// The first match wins, so wrapping errors come before the errors they wrap.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrPartialCreation, http.StatusInternalServerError, "PARTIAL_CREATION"},
	{services.ErrNoValidShops, http.StatusBadRequest, "NO_VALID_SHOPS"},
	{services.ErrInvalidCheckout, http.StatusBadRequest, "VALIDATION_ERROR"},
	{services.ErrInvalidTraceCode, http.StatusBadRequest, "INVALID_ORDER_NUMBER"},
	{services.ErrItemShopMismatch, http.StatusBadRequest, "ITEM_SHOP_MISMATCH"},
	{services.ErrMenuItemNotFound, http.StatusBadRequest, "MENU_ITEM_NOT_FOUND"},
	{services.ErrNotZoneMain, http.StatusBadRequest, "NOT_ZONE_ORDER"},
	{models.ErrUnknownStatus, http.StatusBadRequest, "UNKNOWN_STATUS"},
	{services.ErrZoneNotFound, http.StatusNotFound, "ZONE_NOT_FOUND"},
	{services.ErrShopUnavailable, http.StatusNotFound, "SHOP_UNAVAILABLE"},
	{services.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{services.ErrItemNotFound, http.StatusNotFound, "ITEM_NOT_FOUND"},
	{services.ErrVersionConflict, http.StatusConflict, "CONFLICT"},
	{services.ErrRecomputeConflict, http.StatusConflict, "CONFLICT"},
	{services.ErrDerivedStatus, http.StatusUnprocessableEntity, "DERIVED_STATUS"},
	{models.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	{services.ErrOrderNumberExhausted, http.StatusServiceUnavailable, "ORDER_NUMBER_EXHAUSTED"},
}

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps err onto the error envelope. data, when not nil, is returned
// alongside the error so partially created orders stay visible to the caller.
func respondServiceError(c *gin.Context, err error, data any) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				log.Printf("[%s] %s %s failed: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
			}
			body := gin.H{
				"success": false,
				"error": gin.H{
					"code":    m.code,
					"message": err.Error(),
				},
			}
			if data != nil {
				body["data"] = data
			}
			c.JSON(m.status, body)
			return
		}
	}

	log.Printf("[%s] %s %s failed: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
}

// orderServices returns the configured services or writes a 503
func orderServices(c *gin.Context) (*services.OrderServices, bool) {
	svc := services.GetOrderServices()
	if svc == nil {
		respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Order services are not initialized")
		return nil, false
	}
	return svc, true
}

// uintParam parses a positive numeric path parameter or writes a 400
func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(n), true
}

// actor returns the JWT subject or writes a 401
func actor(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return "", false
	}
	return userID, true
}

func hasScope(c *gin.Context, scope string) bool {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		return false
	}
	custom, ok := claims.CustomClaims.(*middleware.CustomClaims)
	return ok && custom.HasScope(scope)
}
