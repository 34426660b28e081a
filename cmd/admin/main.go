package main

import (
	"errors"
	"flag"
	"os"
	"strings"

	"xpanel/internal/config"
	"xpanel/internal/db"
	"xpanel/internal/domain"
	"xpanel/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Creates an admin account, or promotes and reactivates an existing one.
func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "password, required when creating a new account")
	flag.Parse()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatal(err)
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		var u domain.User
		err := tx.Where("email = ?", addr).First(&u).Error
		switch {
		case err == nil:
			updates := map[string]any{"role": domain.RoleAdmin, "status": domain.UserActive}
			if *password != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				updates["password"] = string(hash)
			}
			logrus.WithField("email", addr).Info("Promoting existing user")
			return tx.Model(&u).Updates(updates).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if len(*password) < 6 {
				return errors.New("-password of at least 6 characters is required for a new account")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			code, err := freeReferralCode(tx)
			if err != nil {
				return err
			}
			logrus.WithField("email", addr).Info("Creating admin user")
			return tx.Create(&domain.User{
				Email:        addr,
				Username:     strings.SplitN(addr, "@", 2)[0],
				Password:     string(hash),
				Role:         domain.RoleAdmin,
				Status:       domain.UserActive,
				ReferralCode: code,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		logrus.Fatalf("failed to set up admin: %v", err)
	}
	logrus.Info("Admin ready")
}

func freeReferralCode(tx *gorm.DB) (string, error) {
	for range 5 {
		code, err := utils.NewReferralCode()
		if err != nil {
			return "", err
		}
		var n int64
		if err := tx.Model(&domain.User{}).Where("referral_code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a referral code")
}
