package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
)

type placeOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	ShippingPhone   string `json:"shipping_phone"`
	PaymentMethod   string `json:"payment_method"`
	Notes           string `json:"notes"`
}

func (s *Server) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := s.checkout.PlaceOrder(c.Request.Context(), orders.CheckoutInput{
		UserID:          callerID(c),
		ShippingAddress: req.ShippingAddress,
		ShippingPhone:   req.ShippingPhone,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	if s.cache != nil {
		if cerr := s.cache.CacheOrder(c.Request.Context(), order); cerr != nil {
			s.logger.Warn("order cache write failed", zap.String("order_id", order.ID), zap.Error(cerr))
		}
	}

	c.JSON(http.StatusCreated, order)
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.loadOrder(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order == nil {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) myOrders(c *gin.Context) {
	list, err := s.store.OrdersByUser(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "total": len(list)})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := s.lifecycle.UpdateStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

func (s *Server) updatePaymentStatus(c *gin.Context) {
	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := s.lifecycle.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) cancelOrder(c *gin.Context) {
	order, err := s.loadOrder(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if order == nil {
		return
	}

	var req cancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	cancelled, err := s.lifecycle.Cancel(c.Request.Context(), order.ID, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

// loadOrder fetches the order for the path id and enforces ownership:
// customers only see their own orders and a foreign id reads as not found.
// A nil order with nil error means the response has already been written.
func (s *Server) loadOrder(c *gin.Context) (*models.Order, error) {
	orderID := c.Param("id")
	ctx := c.Request.Context()

	var order *models.Order
	if s.cache != nil {
		if cached, err := s.cache.GetOrderCache(ctx, orderID); err == nil {
			order = cached
		}
	}
	if order == nil {
		loaded, err := s.store.OrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		order = loaded
		if s.cache != nil {
			if cerr := s.cache.CacheOrder(ctx, order); cerr != nil {
				s.logger.Warn("order cache write failed", zap.String("order_id", order.ID), zap.Error(cerr))
			}
		}
	}

	if !isStaff(c) && order.UserID != callerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found: " + orderID})
		return nil, nil
	}
	return order, nil
}
