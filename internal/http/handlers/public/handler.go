package public

import "github.com/quirkcart/quirkcart/internal/provider"

// Handler serves the storefront checkout and customer endpoints. No
// admin mutation lives here.
type Handler struct {
	*provider.Container
}

// New creates the storefront handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
