package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
	"github.com/keymart/keymart/internal/service"
)

type productRequest struct {
	Name            string           `json:"name" binding:"required"`
	Description     string           `json:"description" binding:"required"`
	Price           float64          `json:"price"`
	ImageURL        string           `json:"image_url"`
	Category        model.Category   `json:"category" binding:"required"`
	Publisher       string           `json:"publisher" binding:"required"`
	Platform        model.Platform   `json:"platform" binding:"required"`
	Featured        bool             `json:"featured"`
	Discount        float64          `json:"discount"`
	ApplicationLink string           `json:"application_link"`
	TutorialLink    string           `json:"tutorial_link"`
	DownloadLink    string           `json:"download_link"`
	Keys            []model.KeyInput `json:"keys"`
}

func (r *productRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		ImageURL:        r.ImageURL,
		Category:        r.Category,
		Publisher:       r.Publisher,
		Platform:        r.Platform,
		Featured:        r.Featured,
		Discount:        r.Discount,
		ApplicationLink: r.ApplicationLink,
		TutorialLink:    r.TutorialLink,
		DownloadLink:    r.DownloadLink,
		Keys:            r.Keys,
	}
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.catalog.CreateProduct(c.Request.Context(), req.toInput())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	p, err := s.catalog.UpdateProduct(ctx, id, req.toInput())
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.invalidateProduct(ctx, id)
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}
	s.invalidateProduct(ctx, id)
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (s *Server) handleListKeys(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	keys, err := s.catalog.ListKeys(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	sold := 0
	for _, k := range keys {
		if k.Sold {
			sold++
		}
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys, "sold": sold, "available": len(keys) - sold})
}

type addKeysRequest struct {
	Keys []model.KeyInput `json:"keys" binding:"required"`
}

func (s *Server) handleAddKeys(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := s.catalog.AddKeys(ctx, id, req.Keys); err != nil {
		s.writeError(c, err)
		return
	}
	s.invalidateProduct(ctx, id)
	c.JSON(http.StatusOK, gin.H{"message": "keys added", "count": len(req.Keys)})
}

func (s *Server) handleRemoveKey(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	keyID, ok := pathID(c, "keyId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := s.catalog.RemoveKey(ctx, id, keyID); err != nil {
		s.writeError(c, err)
		return
	}
	s.invalidateProduct(ctx, id)
	c.JSON(http.StatusOK, gin.H{"message": "key deleted"})
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orders, revenue, err := s.orders.Stats(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	_, productCount, err := s.catalog.ListProducts(ctx, repository.ProductFilter{Limit: 1})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":   orders,
		"revenue":  revenue,
		"users":    userCount,
		"products": productCount,
	})
}
