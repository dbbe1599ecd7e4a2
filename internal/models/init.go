package models

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/quirkcart/quirkcart/internal/constants"
	"github.com/quirkcart/quirkcart/internal/logger"
)

// InitDefaultAdmin creates the bootstrap super admin when none exists.
// Email and password come from the environment at first start.
func InitDefaultAdmin(email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing AdminUser
	err := DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Role:         constants.RoleSuperAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	logger.Infow("default_admin_created", "email", email)
	return nil
}
