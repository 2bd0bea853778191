package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/model"
)

func (s *Server) handleGetCart(c *gin.Context) {
	view, err := s.cart.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":       view.Lines,
		"total_items": view.TotalItems,
		"total_price": view.TotalPrice,
	})
}

type addToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

func (s *Server) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := s.cart.Add(c.Request.Context(), principal(c).UserID, req.ProductID, req.Quantity); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "added to cart"})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleSetCartQuantity(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.cart.SetQuantity(c.Request.Context(), principal(c).UserID, id, req.Quantity); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
}

func (s *Server) handleRemoveFromCart(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	if err := s.cart.Remove(c.Request.Context(), principal(c).UserID, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from cart"})
}

type mergeCartRequest struct {
	Items []model.CartItem `json:"items" binding:"required"`
}

// handleMergeCart folds the device-local cart kept by an anonymous session
// into the server cart after login. The client discards its copy on success.
func (s *Server) handleMergeCart(c *gin.Context) {
	var req mergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.cart.MergeOnLogin(c.Request.Context(), principal(c).UserID, req.Items); err != nil {
		s.writeError(c, err)
		return
	}
	view, err := s.cart.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":       view.Lines,
		"total_items": view.TotalItems,
		"total_price": view.TotalPrice,
	})
}
