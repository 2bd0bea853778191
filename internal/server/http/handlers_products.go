package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

// pathID parses a uuid path parameter, answering 400 itself on failure.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleListProducts(c *gin.Context) {
	f := repository.ProductFilter{
		Category: model.Category(c.Query("category")),
		Platform: model.Platform(c.Query("platform")),
		Featured: c.Query("featured") == "true",
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	if v := c.Query("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_price"})
			return
		}
		f.MinPrice = &p
	}
	if v := c.Query("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_price"})
			return
		}
		f.MaxPrice = &p
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, total, err := s.catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	c.JSON(http.StatusOK, gin.H{
		"products":    products,
		"count":       len(products),
		"total":       total,
		"total_pages": (total + limit - 1) / limit,
		"page":        f.Page,
	})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if s.pcache != nil {
		if p, err := s.pcache.Get(ctx, id); err == nil {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if s.pcache != nil {
		if err := s.pcache.Set(ctx, p); err != nil {
			s.logger.Warn("product cache set", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleListReviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reviews, err := s.catalog.ListReviews(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func (s *Server) handleSubmitReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := s.catalog.SubmitReview(ctx, principal(c).UserID, id, req.Rating, req.Comment); err != nil {
		s.writeError(c, err)
		return
	}
	// rating changed, drop the stale cached document
	s.invalidateProduct(ctx, id)
	c.JSON(http.StatusCreated, gin.H{"message": "review added"})
}

func (s *Server) handleHasPurchased(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	owned, err := s.checkout.HasPurchased(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_purchased": owned})
}
