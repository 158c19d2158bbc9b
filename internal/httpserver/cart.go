package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "mini-commerce/internal/service/cart"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), currentUser(c).ID, cartsvc.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	cart, err := h.deps.CartSvc.UpdateItem(c.Request.Context(), currentUser(c).ID, c.Param("itemId"), *req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cart": cart})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), currentUser(c).ID, c.Param("itemId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cart": cart})
}
