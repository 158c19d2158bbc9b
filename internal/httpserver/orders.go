package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mini-commerce/internal/domain"
)

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) placeOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.PlaceOrder(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"order": o})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListMine(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(orders), "data": gin.H{"orders": orders}})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"order": o})
}

func (h *handlers) cancelOrder(c *gin.Context) {
	res, err := h.deps.OrderSvc.Cancel(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	message := "Order cancelled successfully."
	if res.Suspended {
		message = "Order cancelled. Your account has been suspended due to excessive cancellations."
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   message,
		"suspended": res.Suspended,
		"data":      gin.H{"order": res.Order},
	})
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	to, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), to, currentActor(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"order": o})
}
