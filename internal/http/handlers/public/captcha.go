package public

import (
	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/http/response"
)

// Captcha issues an image challenge for the magic-link form. When the
// captcha is disabled the client is told not to ask.
func (h *Handler) Captcha(c *gin.Context) {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		response.OK(c, gin.H{"enabled": false})
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		response.Internal(c, "captcha generation failed")
		return
	}
	response.OK(c, gin.H{
		"enabled":    true,
		"captcha_id": challenge.CaptchaID,
		"image":      challenge.ImageBase64,
	})
}
