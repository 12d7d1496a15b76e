package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdeenkov/flightbook/config"
	"github.com/avdeenkov/flightbook/internal/bootstrap"
	"github.com/avdeenkov/flightbook/internal/cache"
	"github.com/avdeenkov/flightbook/internal/kafka"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/avdeenkov/flightbook/internal/service/auth"
	"github.com/avdeenkov/flightbook/internal/service/booking"
	"github.com/avdeenkov/flightbook/internal/service/schedules"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.DealsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	scheduleRepo := repository.NewScheduleRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	authService := auth.NewAuthService(userRepo, cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMin)*time.Minute, cfg.Auth.BcryptCost)
	scheduleService := schedules.NewScheduleService(scheduleRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		scheduleRepo,
		notificationRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.PaymentDueHours)*time.Hour,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, authService, scheduleService, bookingService, notificationRepo); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
