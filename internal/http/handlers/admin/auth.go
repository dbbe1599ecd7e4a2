package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/handlers/shared"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/service"
)

// LoginRequest is the admin password login payload.
type LoginRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	token, adminUser, err := h.AuthService.AdminLogin(c.Request.Context(), service.AdminLoginInput{
		Email:       req.Email,
		Password:    req.Password,
		CaptchaID:   req.CaptchaID,
		CaptchaCode: req.CaptchaCode,
		IP:          c.ClientIP(),
	})
	if err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules)
		return
	}
	response.OK(c, gin.H{
		"token": token,
		"admin": gin.H{
			"id":    adminUser.ID,
			"email": adminUser.Email,
			"role":  adminUser.Role,
		},
	})
}

// ResetPasswordRequest rotates an admin password out of band.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
	ResetSecret string `json:"reset_secret" binding:"required"`
}

// ResetPassword is gated by the deployment's reset secret, not by a
// session; it exists for lockout recovery.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email, new_password and reset_secret are required")
		return
	}
	if err := h.AuthService.ResetAdminPassword(req.Email, req.NewPassword, req.ResetSecret); err != nil {
		shared.RespondMapped(c, err, shared.AuthErrorRules)
		return
	}
	response.OK(c, gin.H{"success": true})
}
