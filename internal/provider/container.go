package provider

import (
	"github.com/quirkcart/quirkcart/internal/authz"
	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/pii"
	"github.com/quirkcart/quirkcart/internal/queue"
	"github.com/quirkcart/quirkcart/internal/repository"
	"github.com/quirkcart/quirkcart/internal/service"
)

// Container wires repositories and services once at startup. Handlers
// and workers receive it whole.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo               repository.AdminRepository
	CustomerRepo            repository.CustomerRepository
	OrderRepo               repository.OrderRepository
	DiscountCodeRepo        repository.DiscountCodeRepository
	GiftCardRepo            repository.GiftCardRepository
	GiftCardTransactionRepo repository.GiftCardTransactionRepository
	AuditLogRepo            repository.AuditLogRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	CaptchaService      *service.CaptchaService
	AuditService        *service.AuditService
	NotificationService *service.NotificationService
	DiscountService     *service.DiscountService
	GiftCardService     *service.GiftCardService
	OrderService        *service.OrderService
	CheckoutService     *service.CheckoutService
}

// Options adjusts container construction.
type Options struct {
	PIICodec    pii.Codec
	QueueClient *queue.Client
}

// NewContainer builds the full dependency graph against the global DB
// handle. The PII codec is mandatory; pass an identity codec only in
// debug mode.
func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	db := models.DB

	authzService, err := authz.NewService(db)
	if err != nil {
		return nil, err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:      cfg,
		QueueClient: opts.QueueClient,

		AdminRepo:               repository.NewAdminRepository(db),
		CustomerRepo:            repository.NewCustomerRepository(db),
		OrderRepo:               repository.NewOrderRepository(db),
		DiscountCodeRepo:        repository.NewDiscountCodeRepository(db),
		GiftCardRepo:            repository.NewGiftCardRepository(db),
		GiftCardTransactionRepo: repository.NewGiftCardTransactionRepository(db),
		AuditLogRepo:            repository.NewAuditLogRepository(db),

		AuthzService: authzService,
	}

	c.AuditService = service.NewAuditService(c.AuditLogRepo)
	c.NotificationService = service.NewNotificationService(cfg.Notifier, cfg.Site, opts.QueueClient)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.DiscountService = service.NewDiscountService(c.DiscountCodeRepo)
	c.GiftCardService = service.NewGiftCardService(c.GiftCardRepo, c.GiftCardTransactionRepo, cfg.GiftCard)
	c.OrderService = service.NewOrderService(c.OrderRepo, opts.PIICodec, c.AuditService, c.NotificationService)
	c.CheckoutService = service.NewCheckoutService(
		c.OrderService,
		c.OrderRepo,
		c.DiscountService,
		c.GiftCardService,
		c.AuditService,
		c.NotificationService,
		c.CustomerRepo,
		cfg,
	)
	c.AuthService = service.NewAuthService(
		c.AdminRepo,
		c.CustomerRepo,
		c.CaptchaService,
		c.NotificationService,
		c.AuditService,
		cfg,
	)
	return c, nil
}
