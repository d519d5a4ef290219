// README: Entry point; loads config, wires services, starts HTTP server and background schedulers.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ecoscoot/internal/cache"
	"ecoscoot/internal/config"
	"ecoscoot/internal/events"
	httptransport "ecoscoot/internal/http"
	"ecoscoot/internal/http/handlers"
	"ecoscoot/internal/infra"
	"ecoscoot/internal/logging"
	"ecoscoot/internal/modules/pricing"
	"ecoscoot/internal/modules/reservation"
	"ecoscoot/internal/modules/ride"
	"ecoscoot/internal/modules/scooter"
	"ecoscoot/internal/modules/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}
	defer dbPool.Close()

	var locks cache.LockStore
	if cfg.Redis.Enabled {
		locks = cache.NewRedisStore(infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password), true, logger)
	} else {
		logger.Info("fast path disabled, running on the durable store only")
		locks = cache.NewRedisStore(nil, false, logger)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		pub = kp
	}

	scooterStore := scooter.NewStore(dbPool)
	scooterSvc := scooter.NewService(scooterStore)

	walletStore := wallet.NewStore(dbPool)
	walletSvc := wallet.NewService(walletStore)

	pricingStore := pricing.NewStore(dbPool)
	pricingSvc := pricing.NewService(pricingStore, locks, logger)

	reservationStore := reservation.NewStore(dbPool)
	reservationSvc := reservation.NewService(reservationStore, scooterSvc, locks, pub, logger, cfg.Reservation.TTL)

	rideStore := ride.NewStore(dbPool)
	rideSvc := ride.NewService(rideStore, reservationStore, scooterSvc, walletSvc, pricingSvc, locks, pub, logger)
	meter := ride.NewScheduler(rideSvc, cfg.Billing.ChargeInterval, cfg.Billing.Workers, logger)

	router := httptransport.NewRouter(logger, httptransport.Handlers{
		Reservations: handlers.NewReservationHandler(reservationSvc, rideSvc),
		Rides:        handlers.NewRideHandler(rideSvc),
		Wallet:       handlers.NewWalletHandler(walletSvc),
		Pricing:      handlers.NewPricingHandler(pricingSvc),
		Scooters:     handlers.NewScooterHandler(scooterSvc),
		System:       handlers.NewSystemHandler(dbPool, locks),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go reservationSvc.RunExpirySweeper(ctx, cfg.Reservation.SweepInterval)
	go meter.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}
