package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/booking-market/internal/adapter/events"
	"github.com/rl1809/booking-market/internal/adapter/gateway"
	"github.com/rl1809/booking-market/internal/adapter/handler"
	"github.com/rl1809/booking-market/internal/adapter/storage"
	"github.com/rl1809/booking-market/internal/config"
	"github.com/rl1809/booking-market/internal/core/service"
	"github.com/rl1809/booking-market/internal/logging"
	"github.com/rl1809/booking-market/internal/metrics"
)

const eventBufferSize = 1024

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping mysql")
	}
	logger.Info().Msg("connected to mysql")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	logger.Info().Msg("connected to redis")

	store := storage.NewMySQLAdapter(db)
	locks := storage.NewRedisAdapter(rdb)
	pay := gateway.NewPaymentAdapter(cfg.GatewayURL, cfg.GatewayKey, cfg.WebhookSecret, cfg.GatewayTO)

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, eventBufferSize, logger)
	publisher.Start(ctx)

	m := metrics.New("engine")

	checkoutSvc := service.NewCheckoutService(store, store, locks, store, pay, logger, cfg.LockLease, cfg.Currency)
	settlementSvc := service.NewSettlementService(pay, store, store, publisher, logger)
	cartSvc := service.NewCartService(store, store)
	orderSvc := service.NewOrderService(store, logger)

	r := chi.NewRouter()
	httpHandler := handler.NewHTTPHandler(checkoutSvc, settlementSvc, cartSvc, orderSvc, m)
	httpHandler.Register(r)
	r.Handle("/metrics", metrics.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	// Flush pending order events before dropping connections.
	cancel()
	publisher.WaitClosed()

	rdb.Close()
	db.Close()
	logger.Info().Msg("stopped")
}
