package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/quirkcart/quirkcart/internal/cache"
	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
)

func newTestAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "admin-test-secret-admin-test-secret"
	cfg.CustomerJWT.SecretKey = "customer-test-secret-customer-test"
	cfg.Security.AdminResetSecret = "reset-me-please"
	return NewAuthService(
		repository.NewAdminRepository(db),
		repository.NewCustomerRepository(db),
		nil,
		nil,
		nil,
		cfg,
	)
}

func seedAdmin(t *testing.T, db *gorm.DB, email, password, role string) *models.AdminUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	admin := &models.AdminUser{Email: email, PasswordHash: string(hash), Role: role}
	if err := repository.NewAdminRepository(db).Create(admin); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}
	return admin
}

func TestAdminLoginAndTokenRoundtrip(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	seedAdmin(t, db, "ops@example.com", "hunter22hunter22", constants.RoleSuperAdmin)

	token, admin, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email:    "OPS@example.com",
		Password: "hunter22hunter22",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if admin.LastLoginAt == nil {
		t.Fatal("LastLoginAt not stamped")
	}

	claims, parsed, err := svc.ParseAdminToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Email != "ops@example.com" || claims.Role != constants.RoleSuperAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if parsed.ID != admin.ID {
		t.Fatalf("parsed admin %d, logged in as %d", parsed.ID, admin.ID)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	seedAdmin(t, db, "ops@example.com", "hunter22hunter22", constants.RoleSuperAdmin)

	if _, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email: "ops@example.com", Password: "wrong",
	}); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("wrong password: expected ErrCredentialsInvalid, got %v", err)
	}
	if _, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email: "nobody@example.com", Password: "hunter22hunter22",
	}); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("unknown account: expected ErrCredentialsInvalid, got %v", err)
	}
	if _, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{}); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("empty input: expected ErrCredentialsInvalid, got %v", err)
	}
}

func TestResetAdminPasswordRevokesTokens(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	seedAdmin(t, db, "ops@example.com", "hunter22hunter22", constants.RoleSuperAdmin)

	token, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email: "ops@example.com", Password: "hunter22hunter22",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.ResetAdminPassword("ops@example.com", "newpassword123", "wrong-secret"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("wrong secret: expected ErrForbidden, got %v", err)
	}
	if err := svc.ResetAdminPassword("ops@example.com", "short", "reset-me-please"); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("short password: expected ErrCredentialsInvalid, got %v", err)
	}
	if err := svc.ResetAdminPassword("ops@example.com", "newpassword123", "reset-me-please"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	// the pre-reset token no longer verifies
	if _, _, err := svc.ParseAdminToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("stale token: expected ErrTokenInvalid, got %v", err)
	}
	// the old password no longer logs in, the new one does
	if _, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email: "ops@example.com", Password: "hunter22hunter22",
	}); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("old password survived the reset: %v", err)
	}
	if _, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email: "ops@example.com", Password: "newpassword123",
	}); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

func TestMagicLinkVerifyIsSingleUse(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)

	token, err := newMagicLinkToken()
	if err != nil {
		t.Fatalf("token mint failed: %v", err)
	}
	state := &cache.MagicLinkState{Email: "shopper@example.com", Name: "Sam Shopper", CreatedAt: time.Now().Unix()}
	if err := cache.StoreMagicLink(context.Background(), token, state, time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	signed, customer, err := svc.VerifyMagicLink(context.Background(), token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if customer.Email != "shopper@example.com" {
		t.Fatalf("unexpected customer: %+v", customer)
	}

	claims, err := svc.ParseCustomerToken(signed)
	if err != nil {
		t.Fatalf("customer token parse failed: %v", err)
	}
	if claims.Email != "shopper@example.com" || claims.Role != constants.RoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// a second redemption of the same token misses
	if _, _, err := svc.VerifyMagicLink(context.Background(), token); !errors.Is(err, ErrMagicLinkInvalid) {
		t.Fatalf("replayed token: expected ErrMagicLinkInvalid, got %v", err)
	}
}

func TestParseCustomerTokenRejectsAdminToken(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	seedAdmin(t, db, "ops@example.com", "hunter22hunter22", constants.RoleSuperAdmin)

	adminToken, _, err := svc.AdminLogin(context.Background(), AdminLoginInput{
		Email: "ops@example.com", Password: "hunter22hunter22",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	// signed with a different secret and missing the customer role
	if _, err := svc.ParseCustomerToken(adminToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("admin token on the portal: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.ParseCustomerToken("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage token: expected ErrTokenInvalid, got %v", err)
	}
}

func TestRequestMagicLinkValidatesEmail(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)

	for _, email := range []string{"", "   ", "no-at-sign"} {
		if err := svc.RequestMagicLink(context.Background(), RequestMagicLinkInput{Email: email}); !errors.Is(err, ErrMagicLinkInvalid) {
			t.Fatalf("email %q: expected ErrMagicLinkInvalid, got %v", email, err)
		}
	}
	if err := svc.RequestMagicLink(context.Background(), RequestMagicLinkInput{Email: "shopper@example.com"}); err != nil {
		t.Fatalf("valid request failed: %v", err)
	}
}

func TestInitDefaultAdminSeedsOnce(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAdminRepository(db)

	if err := InitDefaultAdmin(repo, "boss@example.com"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	admins, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "boss@example.com" || admins[0].Role != constants.RoleSuperAdmin {
		t.Fatalf("unexpected seed result: %+v", admins)
	}

	if err := InitDefaultAdmin(repo, "other@example.com"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	admins, err = repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("seed ran twice: %d admins", len(admins))
	}
}
