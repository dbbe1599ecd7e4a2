package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/provider"
)

// Handler serves the admin API. Every route behind it runs after the
// admin JWT and RBAC middlewares.
type Handler struct {
	*provider.Container
}

// New creates the admin handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// principal reads the authenticated admin identity placed on the
// context by the auth middleware.
func principal(c *gin.Context) (id uint, email string) {
	if value, exists := c.Get("admin_id"); exists {
		if v, ok := value.(uint); ok {
			id = v
		}
	}
	if value, exists := c.Get("admin_email"); exists {
		if v, ok := value.(string); ok {
			email = v
		}
	}
	return id, email
}
