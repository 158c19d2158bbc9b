package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	productsvc "mini-commerce/internal/service/product"
)

type createProductRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Price       *int64 `json:"price" binding:"required"`
	Stock       int    `json:"stock"`
	Category    string `json:"category" binding:"required"`
}

type updateProductRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int    `json:"stock"`
	Category    *string `json:"category"`
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(products), "data": gin.H{"products": products}})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"product": p})
}

func (h *handlers) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	p, err := h.deps.ProductSvc.Create(c.Request.Context(), productsvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  *req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"product": p})
}

func (h *handlers) updateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	p, err := h.deps.ProductSvc.Update(c.Request.Context(), c.Param("id"), productsvc.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"product": p})
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.ProductSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
