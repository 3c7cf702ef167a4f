// Command admin_seed prepares a local database: it migrates the schema,
// creates default wallets for an owner in every supported currency and
// prints an admin token for calling the API.
package main

import (
	"context"
	"fmt"
	"os"

	"walletledger/internal/config"
	"walletledger/internal/logger"
	"walletledger/internal/models"
	"walletledger/internal/repositories"
	"walletledger/internal/services/wallet"
	"walletledger/internal/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, false)

	adminID := config.GetEnv("ADMIN_OWNER_ID", "")
	if adminID == "" {
		log.Fatal("ADMIN_OWNER_ID must be set in environment")
	}
	seedOwner := config.GetEnv("SEED_OWNER_ID", adminID)

	db, err := repositories.InitDB(cfg.DB, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			log.WithError(err).Warn("failed to close PostgreSQL connection")
		}
	}()

	svc := wallet.NewService(wallet.Dependencies{
		Repo:   repositories.NewWalletRepository(db, cfg.DB.LockTimeout),
		Logger: log,
	}, wallet.Config{
		DefaultCurrency:     cfg.Engine.DefaultCurrency,
		SupportedCurrencies: cfg.Engine.SupportedCurrencies,
	})

	currencies := cfg.Engine.SupportedCurrencies
	if len(currencies) == 0 {
		currencies = []string{cfg.Engine.DefaultCurrency}
	}

	ctx := context.Background()
	for _, currency := range currencies {
		w, err := svc.GetOrCreateDefaultWallet(ctx, seedOwner, currency)
		if err != nil {
			log.WithError(err).WithField("currency", currency).Fatal("failed to create default wallet")
		}
		log.WithFields(logrus.Fields{
			"owner_id":  w.OwnerID,
			"wallet_id": w.ID,
			"currency":  w.Currency,
		}).Info("default wallet ready")
	}

	token, err := utils.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, adminID, models.RoleAdmin)
	if err != nil {
		log.WithError(err).Fatal("failed to sign admin token")
	}
	fmt.Println(token)
}
