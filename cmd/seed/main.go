// seed creates a demo product with an active RFID tag and prints a
// short-lived admin token for local testing.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockpos/internal/config"
	"stockpos/internal/infra"
	"stockpos/internal/middleware"
	"stockpos/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		log.Fatal().Msg("refusing to seed a production database")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	ctx := context.Background()

	product := model.Product{
		Name:               "Demo Widget",
		RetailPrice:        decimal.NewFromInt(200),
		WholesalePrice:     decimal.NewFromInt(150),
		WholesaleThreshold: 5,
		Stock:              10,
		Status:             model.StatusFor(10),
		LowStockThreshold:  3,
	}
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&product).Error
	if err != nil {
		log.Fatal().Err(err).Msg("insert product")
	}
	if err := db.WithContext(ctx).Where("name = ?", product.Name).First(&product).Error; err != nil {
		log.Fatal().Err(err).Msg("load product")
	}

	tag := model.RFIDTag{TagCode: "DEMO-TAG-0001", ProductID: product.ID, Status: model.TagActive}
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tag_code"}}, DoNothing: true}).
		Create(&tag).Error
	if err != nil {
		log.Fatal().Err(err).Msg("insert tag")
	}

	fmt.Printf("product %s (%s), tag %s\n", product.Name, product.ID, tag.TagCode)

	if cfg.JWTSecret == "" {
		fmt.Println("JWT_SECRET not set; no token printed")
		return
	}
	claims := middleware.JWTClaims{
		UserID: uuid.NewString(),
		Role:   middleware.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(8 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println("admin token:", token)
}
