package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/stock-manager/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminUsername is the account created by Seed.
const AdminUsername = "admin"

// Seed creates the administrator account if it does not exist yet. It is
// safe to run on every start.
func Seed(conn *gorm.DB, adminPassword string) error {
	var existing models.User
	err := conn.Where("username = ?", AdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username: AdminUsername,
		Password: string(hash),
		FullName: "Administrator",
		Role:     models.RoleAdministrator,
		IsActive: true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
