package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type createAdminPayload struct {
	FullName string `json:"full_name"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type AdminController struct {
	AdminSvc *services.AdminService
	SMTP     utils.SMTPConfig
	LoginURL string
	Log      *logrus.Logger
}

func NewAdminController(svc *services.AdminService, smtp utils.SMTPConfig, loginURL string, log *logrus.Logger) *AdminController {
	return &AdminController{AdminSvc: svc, SMTP: smtp, LoginURL: loginURL, Log: log}
}

// POST /api/admin/admins
func (ac *AdminController) CreateAdmin(c *gin.Context) {
	var in createAdminPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "username and password required")
		return
	}
	admin, err := ac.AdminSvc.Create(c.Request.Context(), in.FullName, in.Username, in.Password, in.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	// usernames are usually email addresses
	if strings.Contains(admin.Username, "@") {
		m := utils.AdminEmail{To: admin.Username, Name: admin.FullName, Role: admin.Role, LoginURL: ac.LoginURL}
		if err := utils.SendAdminWelcomeEmail(ac.SMTP, ac.Log, m); err != nil {
			ac.Log.WithError(err).WithField("admin_id", admin.ID).Warn("admin created but welcome email failed")
		}
	}
	utils.JSONSuccess(c, http.StatusCreated, admin)
}

// GET /api/admin/me
func (ac *AdminController) Me(c *gin.Context) {
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"id":       c.GetString("sub"),
		"username": c.GetString("username"),
		"role":     c.GetString("role"),
	})
}
