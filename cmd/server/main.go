package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signetpay/payment-ledger-service/internal/auth"
	"github.com/signetpay/payment-ledger-service/internal/config"
	"github.com/signetpay/payment-ledger-service/internal/events/kafka"
	"github.com/signetpay/payment-ledger-service/internal/interfaces"
	"github.com/signetpay/payment-ledger-service/internal/ledger"
	"github.com/signetpay/payment-ledger-service/internal/logger"
	"github.com/signetpay/payment-ledger-service/internal/server"
	"github.com/signetpay/payment-ledger-service/internal/signature"
	"github.com/signetpay/payment-ledger-service/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	cancel()

	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	store := postgres.NewStore(db, cfg.AllowOverdraft)

	var publisher interfaces.EventPublisher

	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()

		publisher = kafkaPublisher
	}

	verifier := signature.NewVerifier(cfg.TransactionSecret)
	ledgerService := ledger.New(verifier, store, store, publisher, log)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	srv := server.New(ledgerService, store, issuer, log)

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
		errCh <- srv.Listen(cfg.HTTPAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server stopped unexpectedly")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
