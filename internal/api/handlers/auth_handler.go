// internal/api/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"po-bridge-api-server/internal/api/middleware"
	"po-bridge-api-server/internal/api/respond"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Identity *identity.Service
	Log      *logger.Logger
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, h.Log, respond.Binding(err))
		return
	}

	sess, err := h.Identity.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, h.Log, respond.Binding(err))
		return
	}

	sess, err := h.Identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout revokes the current session so its token stops working.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Identity.SignOut(c.Request.Context(), middleware.CurrentSession(c)); err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me echoes the authenticated buyer.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentSession(c))
}
