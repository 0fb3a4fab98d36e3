package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/orders"
	"github.com/example/shopcore/pkg/payments"
)

// respondError maps domain errors onto HTTP responses with the context the
// caller needs; anything unrecognized becomes a generic 500 so internals
// never leak.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validation orders.ValidationError
		notFound   orders.NotFoundError
		stock      orders.InsufficientStockError
		invalid    orders.InvalidStatusError
		illegal    orders.IllegalTransitionError
		conflict   payments.ConflictError
		provider   payments.ExternalProviderError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, orders.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stock):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      stock.Error(),
			"product_id": stock.ProductID,
			"requested":  stock.Requested,
			"available":  stock.Available,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.Is(err, orders.ErrCancelShipped):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
	case errors.As(err, &illegal):
		c.JSON(http.StatusConflict, gin.H{
			"error":     illegal.Error(),
			"current":   illegal.Current,
			"requested": illegal.Requested,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.As(err, &provider):
		c.JSON(http.StatusBadGateway, gin.H{"error": provider.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
