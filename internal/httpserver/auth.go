package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authsvc "mini-commerce/internal/service/auth"
)

const adminSignupHeader = "X-Admin-Signup-Key"

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	u, token, err := h.deps.AuthSvc.Register(c.Request.Context(), authsvc.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, c.GetHeader(adminSignupHeader))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "token": token, "data": gin.H{"user": u}})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, invalidInput(err))
		return
	}
	u, token, err := h.deps.AuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token, "data": gin.H{"user": u}})
}

func (h *handlers) me(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"user": currentUser(c)})
}

func invalidInput(err error) string {
	return "Invalid input data. " + err.Error()
}
