package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quirkcart/quirkcart/internal/cache"
	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/queue"
	"github.com/quirkcart/quirkcart/internal/repository"
)

const (
	magicLinkTokenBytes = 32

	defaultMagicLinkTTL       = 15 * time.Minute
	defaultMagicLinkPerEmail  = 3
	defaultMagicLinkPerIP     = 10
	defaultLoginRateWindow    = 300
	defaultLoginRateAttempts  = 10
	defaultAdminTokenHours    = 24
	defaultCustomerTokenHours = 24 * 30
)

// MagicLinkResponse is returned for every request-link call; the same
// message regardless of whether the address is known, so the endpoint
// cannot be used to enumerate customers.
const MagicLinkResponse = "If that address is valid, a sign-in link is on its way."

// AdminClaims is the admin token payload.
type AdminClaims struct {
	AdminID      uint   `json:"admin_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// CustomerClaims is the customer portal token payload.
type CustomerClaims struct {
	CustomerID uint   `json:"customer_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService covers admin password login and the customer magic-link
// flow. Customers have no passwords at all.
type AuthService struct {
	adminRepo    repository.AdminRepository
	customerRepo repository.CustomerRepository
	captchaSvc   *CaptchaService
	notifier     *NotificationService
	audit        *AuditService
	adminJWT     config.JWTConfig
	customerJWT  config.JWTConfig
	security     config.SecurityConfig
	magicLink    config.MagicLinkConfig
	siteCfg      config.SiteConfig
}

// NewAuthService creates the auth service.
func NewAuthService(
	adminRepo repository.AdminRepository,
	customerRepo repository.CustomerRepository,
	captchaSvc *CaptchaService,
	notifier *NotificationService,
	audit *AuditService,
	cfg *config.Config,
) *AuthService {
	svc := &AuthService{
		adminRepo:    adminRepo,
		customerRepo: customerRepo,
		captchaSvc:   captchaSvc,
		notifier:     notifier,
		audit:        audit,
	}
	if cfg != nil {
		svc.adminJWT = cfg.JWT
		svc.customerJWT = cfg.CustomerJWT
		svc.security = cfg.Security
		svc.magicLink = cfg.MagicLink
		svc.siteCfg = cfg.Site
	}
	return svc
}

// RequestMagicLinkInput is the customer sign-in request.
type RequestMagicLinkInput struct {
	Email       string
	Name        string
	CaptchaID   string
	CaptchaCode string
	IP          string
}

// RequestMagicLink throttles, mints a single-use token, and emails the
// sign-in link. Callers always show MagicLinkResponse on success.
func (s *AuthService) RequestMagicLink(ctx context.Context, input RequestMagicLinkInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrMagicLinkInvalid
	}
	if s.captchaSvc != nil {
		if err := s.captchaSvc.Verify(CaptchaVerifyPayload{CaptchaID: input.CaptchaID, CaptchaCode: input.CaptchaCode}); err != nil {
			return err
		}
	}

	maxPerEmail := s.magicLink.MaxPerEmailHour
	if maxPerEmail <= 0 {
		maxPerEmail = defaultMagicLinkPerEmail
	}
	count, err := cache.IncrWindow(ctx, cache.MagicLinkEmailCounterKey(email), time.Hour)
	if err == nil && count > int64(maxPerEmail) {
		return ErrRateLimited
	}
	if ip := strings.TrimSpace(input.IP); ip != "" {
		maxPerIP := s.magicLink.MaxPerIPHour
		if maxPerIP <= 0 {
			maxPerIP = defaultMagicLinkPerIP
		}
		count, err := cache.IncrWindow(ctx, cache.MagicLinkIPCounterKey(ip), time.Hour)
		if err == nil && count > int64(maxPerIP) {
			return ErrRateLimited
		}
	}

	token, err := newMagicLinkToken()
	if err != nil {
		return err
	}
	ttl := time.Duration(s.magicLink.TokenTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultMagicLinkTTL
	}
	state := &cache.MagicLinkState{
		Email:     email,
		Name:      strings.TrimSpace(input.Name),
		CreatedAt: time.Now().Unix(),
	}
	if err := cache.StoreMagicLink(ctx, token, state, ttl); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/account/verify?token=%s", strings.TrimRight(s.siteCfg.URL, "/"), token)
	if s.notifier != nil {
		s.notifier.Notify(queue.NotifyDispatchPayload{
			Event: constants.NotifyEventMagicLink,
			Email: email,
			Data: map[string]string{
				"link":        link,
				"ttl_minutes": fmt.Sprintf("%d", int(ttl.Minutes())),
			},
		})
	}
	return nil
}

// VerifyMagicLink consumes a token, upserts the customer, and returns a
// portal JWT. A token verifies at most once.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (string, *models.Customer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil, ErrMagicLinkInvalid
	}
	state, ok, err := cache.TakeMagicLink(ctx, token)
	if err != nil || !ok || state == nil {
		return "", nil, ErrMagicLinkInvalid
	}

	now := time.Now()
	customer, err := s.customerRepo.Upsert(state.Email, state.Name, &now)
	if err != nil {
		return "", nil, err
	}

	signed, err := s.signCustomerToken(customer)
	if err != nil {
		return "", nil, err
	}
	return signed, customer, nil
}

// AdminLoginInput is the admin password login request.
type AdminLoginInput struct {
	Email       string
	Password    string
	CaptchaID   string
	CaptchaCode string
	IP          string
}

// AdminLogin verifies credentials and returns a signed admin token.
// Failed and successful attempts both count against the rate window.
func (s *AuthService) AdminLogin(ctx context.Context, input AdminLoginInput) (string, *models.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return "", nil, ErrCredentialsInvalid
	}
	if s.captchaSvc != nil {
		if err := s.captchaSvc.Verify(CaptchaVerifyPayload{CaptchaID: input.CaptchaID, CaptchaCode: input.CaptchaCode}); err != nil {
			return "", nil, err
		}
	}
	if err := s.checkLoginRate(ctx, email, input.IP); err != nil {
		return "", nil, err
	}

	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil || admin == nil {
		// burn comparable time so a missing account is not observable
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOa5BCknlGvZ4dpmRZa1eZdA9oJZTLP2u"), []byte(input.Password))
		return "", nil, ErrCredentialsInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		return "", nil, ErrCredentialsInvalid
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		logger.Warnw("auth_admin_last_login_update_failed", "admin_id", admin.ID, "error", err)
	}

	signed, err := s.signAdminToken(admin)
	if err != nil {
		return "", nil, err
	}
	if s.audit != nil {
		s.audit.Record(AuditEntry{
			Action:         constants.AuditActionAdminLogin,
			PrincipalID:    &admin.ID,
			PrincipalEmail: admin.Email,
			ResourceType:   "admin",
			ResourceID:     fmt.Sprintf("%d", admin.ID),
			IP:             input.IP,
		})
	}
	return signed, admin, nil
}

// ResetAdminPassword rotates an admin password when the caller presents
// the out-of-band reset secret. Outstanding tokens are invalidated.
func (s *AuthService) ResetAdminPassword(email, newPassword, resetSecret string) error {
	if s.security.AdminResetSecret == "" || resetSecret != s.security.AdminResetSecret {
		return ErrForbidden
	}
	if len(newPassword) < 8 {
		return ErrCredentialsInvalid
	}
	admin, err := s.adminRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil || admin == nil {
		return ErrAdminNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	admin.PasswordHash = string(hash)
	admin.TokenVersion++
	admin.TokenInvalidBefore = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return err
	}

	if s.audit != nil {
		s.audit.Record(AuditEntry{
			Action:         constants.AuditActionAdminPasswordReset,
			PrincipalEmail: admin.Email,
			ResourceType:   "admin",
			ResourceID:     fmt.Sprintf("%d", admin.ID),
		})
	}
	if s.notifier != nil {
		s.notifier.Notify(queue.NotifyDispatchPayload{
			Event: constants.NotifyEventAdminPasswordReset,
			Email: admin.Email,
			Data:  map[string]string{"contact": s.siteCfg.SupportEmail},
		})
	}
	return nil
}

// ParseAdminToken validates an admin token and re-checks it against the
// stored token version, so resets revoke outstanding sessions.
func (s *AuthService) ParseAdminToken(tokenString string) (*AdminClaims, *models.AdminUser, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.adminJWT.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, nil, ErrTokenInvalid
	}

	admin, err := s.adminRepo.GetByID(claims.AdminID)
	if err != nil || admin == nil {
		return nil, nil, ErrTokenInvalid
	}
	if admin.TokenVersion != claims.TokenVersion {
		return nil, nil, ErrTokenInvalid
	}
	if admin.TokenInvalidBefore != nil && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(*admin.TokenInvalidBefore) {
		return nil, nil, ErrTokenInvalid
	}
	return claims, admin, nil
}

// ParseCustomerToken validates a customer portal token.
func (s *AuthService) ParseCustomerToken(tokenString string) (*CustomerClaims, error) {
	claims := &CustomerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.customerJWT.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Role != constants.RoleCustomer || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) signAdminToken(admin *models.AdminUser) (string, error) {
	hours := s.adminJWT.ExpireHours
	if hours <= 0 {
		hours = defaultAdminTokenHours
	}
	now := time.Now()
	claims := AdminClaims{
		AdminID:      admin.ID,
		Email:        admin.Email,
		Role:         admin.Role,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(hours) * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.adminJWT.SecretKey))
}

func (s *AuthService) signCustomerToken(customer *models.Customer) (string, error) {
	hours := s.customerJWT.ExpireHours
	if hours <= 0 {
		hours = defaultCustomerTokenHours
	}
	now := time.Now()
	claims := CustomerClaims{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Role:       constants.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customer.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(hours) * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.customerJWT.SecretKey))
}

func (s *AuthService) checkLoginRate(ctx context.Context, email, ip string) error {
	windowSeconds := s.security.LoginRateLimit.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = defaultLoginRateWindow
	}
	maxAttempts := s.security.LoginRateLimit.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultLoginRateAttempts
	}
	window := time.Duration(windowSeconds) * time.Second

	keys := []string{"login:email:" + email}
	if strings.TrimSpace(ip) != "" {
		keys = append(keys, "login:ip:"+ip)
	}
	for _, key := range keys {
		count, err := cache.IncrWindow(ctx, key, window)
		if err != nil {
			continue
		}
		if count > int64(maxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// InitDefaultAdmin seeds a super admin on first boot when the table is
// empty. The generated password is logged once.
func InitDefaultAdmin(adminRepo repository.AdminRepository, email string) error {
	admins, err := adminRepo.List()
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}
	if email == "" {
		email = "admin@example.com"
	}

	password, err := newMagicLinkToken()
	if err != nil {
		return err
	}
	password = password[:16]
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Role:         constants.RoleSuperAdmin,
	}
	if err := adminRepo.Create(admin); err != nil {
		return err
	}
	logger.Infow("auth_default_admin_created", "email", email, "password", password)
	return nil
}

func newMagicLinkToken() (string, error) {
	buf := make([]byte, magicLinkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
