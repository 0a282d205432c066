package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
)

// ensureAdmin seeds the first admin account so a fresh database is usable.
// Controlled by ADMIN_EMAIL / ADMIN_PASSWORD; does nothing once an admin
// exists.
func ensureAdmin() error {
	var n int64
	if err := db.Conn().Model(&models.User{}).Where("role = ?", "admin").Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	email := getEnv("ADMIN_EMAIL", "admin@example.com")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123" // change in production: export ADMIN_PASSWORD=...
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
	}
	if err := db.Conn().Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("seeded admin account %s", email)
	return nil
}
