package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/database"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "", "Email address of the account to promote")
	revoke := flag.Bool("revoke", false, "Revoke superuser instead of granting it")
	flag.Parse()

	if *email == "" {
		fmt.Println("Usage: promote-superuser -email=user@example.com [-revoke]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	_ = logger.Initialize(cfg.LogLevel, "")
	defer logger.Close()

	if err := database.Initialize(cfg.Database, false); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	var user models.User
	if err := database.DB.Where("email = ?", *email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("User not found", zap.String("email", *email))
			return
		}
		logger.Log.Fatal("Lookup failed", zap.Error(err))
	}

	grant := !*revoke
	if user.IsSuperuser == grant {
		logger.Log.Warn("Nothing to change", zap.String("email", user.Email), zap.Bool("is_superuser", grant))
		return
	}

	// Generated users can be promoted too; only the flag changes.
	if err := database.DB.Model(&user).Update("is_superuser", grant).Error; err != nil {
		logger.Log.Fatal("Failed to update user", zap.Error(err))
	}
	logger.Log.Info("Superuser flag updated",
		zap.String("email", user.Email),
		logger.WithUserID(user.ID),
		zap.Bool("is_superuser", grant),
	)
}
