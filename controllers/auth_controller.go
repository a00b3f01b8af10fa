package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthController struct {
	AdminSvc *services.AdminService
}

func NewAuthController(svc *services.AdminService) *AuthController {
	return &AuthController{AdminSvc: svc}
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.Username) == "" || payload.Password == "" {
		badRequest(c, "username and password required")
		return
	}

	token, admin, err := ac.AdminSvc.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"token": token, "admin": admin})
}
