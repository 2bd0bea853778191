package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keymart/keymart/internal/events"
	"github.com/keymart/keymart/internal/model"
)

func (s *Server) handleCreatePaymentOrder(c *gin.Context) {
	ord, err := s.checkout.CreatePaymentOrder(c.Request.Context(), principal(c).UserID, s.taxRate)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

type verifyPaymentRequest struct {
	GatewayOrderID   string               `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string               `json:"gateway_payment_id" binding:"required"`
	Signature        string               `json:"signature" binding:"required"`
	Items            []model.CheckoutItem `json:"items" binding:"required"`
}

func (s *Server) handleVerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	order, err := s.checkout.VerifyAndFulfill(ctx, principal(c).UserID,
		req.GatewayOrderID, req.GatewayPaymentID, req.Signature, req.Items)
	if err != nil {
		checkoutsTotal.WithLabelValues("rejected").Inc()
		s.writeError(c, err)
		return
	}
	checkoutsTotal.WithLabelValues("fulfilled").Inc()
	keysAllocatedTotal.Add(float64(len(order.Items)))

	// sold counts changed for every purchased product
	for _, it := range req.Items {
		s.invalidateProduct(ctx, it.ProductID)
	}

	if err := s.events.PublishOrderFulfilled(ctx, events.OrderFulfilled{
		OrderID:     order.ID.String(),
		UserID:      order.UserID.String(),
		TotalAmount: order.TotalAmount,
		Units:       len(order.Items),
		FulfilledAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("publish order event", zap.Error(err), zap.String("order_id", order.ID.String()))
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) handleListOrders(c *gin.Context) {
	orders, err := s.checkout.ListOrders(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) handleListPurchases(c *gin.Context) {
	purchases, err := s.checkout.ListPurchases(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
