package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avdeenkov/flightbook/api"
	"github.com/avdeenkov/flightbook/config"
	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/avdeenkov/flightbook/internal/service/auth"
	"github.com/avdeenkov/flightbook/internal/service/booking"
	"github.com/avdeenkov/flightbook/internal/service/schedules"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	authSvc auth.AuthUseCase,
	scheduleSvc schedules.ScheduleUseCase,
	bookingSvc booking.BookingUseCase,
	notifications repository.NotificationRepository,
) error {
	router := newRouter(cfg, authSvc, scheduleSvc, bookingSvc, notifications)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(
	cfg *config.Config,
	authSvc auth.AuthUseCase,
	scheduleSvc schedules.ScheduleUseCase,
	bookingSvc booking.BookingUseCase,
	notifications repository.NotificationRepository,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	v1 := router.Group("/api/v1")

	authed := api.JWTAuth(cfg.Auth.JWTSecret)
	adminOnly := api.RequireRole(domain.RoleAdmin)

	api.NewAuthHandler(authSvc).Register(v1.Group("/auth"), v1.Group("/auth", authed))

	schedulesPublic := v1.Group("/schedules")
	schedulesAdmin := v1.Group("/schedules", authed, adminOnly)
	api.NewScheduleHandler(scheduleSvc).Register(schedulesPublic, schedulesAdmin)

	api.NewBookingHandler(bookingSvc).Register(v1.Group("/bookings", authed))
	api.NewNotificationHandler(notifications).Register(v1.Group("/notifications", authed))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	return router
}
