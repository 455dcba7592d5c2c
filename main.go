package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/SaltAndLight/controllers"
	"github.com/SaltAndLight/initializers"
	"github.com/SaltAndLight/metrics"
	"github.com/SaltAndLight/middlewares"
	"github.com/SaltAndLight/repositories"
	"github.com/SaltAndLight/services"
)

func main() {
	initializers.LoadEnv()

	cfg, err := initializers.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := initializers.NewLogger(cfg)

	sqlDB, err := initializers.ConnectDB(cfg.DBURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer sqlDB.Close()

	if cfg.RunMigrations {
		if err := initializers.RunMigrations(sqlDB, log); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}
	}

	metrics.InitMetrics(prometheus.DefaultRegisterer)

	db := initializers.NewGoqu(sqlDB)
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	prayerRepo := repositories.NewPrayerRequestRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	publisher := newEventPublisher(cfg, log)
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	push := services.NewPushNotificationService(ctx, cfg.FirebaseServiceAccountPath, userRepo, log)
	dispatcher := services.NewNotificationDispatcher(push, publisher, log)

	var (
		mailer      services.WelcomeMailer
		resetMailer services.ResetMailer
	)
	if email := services.NewEmailService(cfg.ResendAPIKey, cfg.ResendFromEmail, log); email != nil {
		mailer = email
		resetMailer = email
	}

	userService := services.NewUserService(userRepo, mailer, cfg.Secret, cfg.TokenTTL, log)
	prayerService := services.NewPrayerRequestService(prayerRepo, dispatcher, log)
	notificationService := services.NewNotificationService(notificationRepo)
	resetService := services.NewPasswordResetService(resetRepo, resetMailer, cfg.Secret, log)

	router := setupRouter(cfg, log, userRepo,
		controllers.NewUserController(userService, log),
		controllers.NewPrayerRequestController(prayerService, log),
		controllers.NewNotificationController(notificationService, log),
		controllers.NewPasswordResetController(resetService, log),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	dispatcher.Wait()
	userService.Wait()
}

func newEventPublisher(cfg initializers.Config, log *logrus.Logger) services.EventPublisher {
	if cfg.AMQPURL == "" {
		return services.NewNoopPublisher(log)
	}

	publisher, err := services.NewEventPublisher(cfg.AMQPURL, cfg.EventsExchange)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, events will not be published")
		return services.NewNoopPublisher(log)
	}
	return publisher
}

func setupRouter(
	cfg initializers.Config,
	log *logrus.Logger,
	users middlewares.UserLookup,
	userController *controllers.UserController,
	prayerController *controllers.PrayerRequestController,
	notificationController *controllers.NotificationController,
	resetController *controllers.PasswordResetController,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(log), middlewares.Metrics())

	getKey := middlewares.ClientKey

	router.POST("/login", middlewares.RateLimitMiddleware(2, 2, getKey), userController.Login)
	router.POST("/signup", middlewares.RateLimitMiddleware(2, 2, getKey), userController.Signup)
	router.GET("/ping", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.Ping)

	// password reset routes
	router.POST("/auth/forgot-password", middlewares.RateLimitMiddleware(1, 3, getKey), resetController.ForgotPassword)
	router.POST("/auth/verify-reset-code", middlewares.RateLimitMiddleware(1, 5, getKey), resetController.VerifyResetCode)
	router.POST("/auth/reset-password", middlewares.RateLimitMiddleware(1, 3, getKey), resetController.ResetPassword)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middlewares.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	public := router.Group("/")
	public.Use(middlewares.OptionalAuth(cfg.Secret, users))
	public.Use(limiter.Middleware(getKey))
	{
		public.GET("/prayer_requests", prayerController.List)
		public.GET("/prayer_requests/answered", prayerController.ListAnswered)
		public.GET("/prayer_requests/:id", prayerController.Get)
		public.GET("/prayer_requests/:id/encouragements", prayerController.ListEncouragements)
		public.GET("/prayer_requests/:id/prayed-users", prayerController.PrayedUsers)
	}

	auth := router.Group("/")
	auth.Use(middlewares.CheckAuth(cfg.Secret, users))
	auth.Use(limiter.Middleware(getKey))
	{
		// prayer request routes
		auth.POST("/prayer_requests", prayerController.Create)
		auth.PATCH("/prayer_requests/:id", prayerController.Update)
		auth.DELETE("/prayer_requests/:id", prayerController.Delete)
		auth.POST("/prayer_requests/:id/pray", prayerController.Pray)
		auth.DELETE("/prayer_requests/:id/pray", prayerController.Unpray)
		auth.POST("/prayer_requests/:id/encouragements", prayerController.AddEncouragement)
		auth.POST("/prayer_requests/:id/mark-answered", prayerController.MarkAnswered)

		// user routes
		auth.GET("/users/me", userController.GetProfile)
		auth.POST("/users/push-token", userController.StorePushToken)
		auth.POST("/users/:user_profile_id/follow", userController.Follow)
		auth.DELETE("/users/:user_profile_id/follow", userController.Unfollow)

		// notification routes
		auth.GET("/notifications", notificationController.List)
		auth.PATCH("/notifications/mark-all-read", notificationController.MarkAllRead)
		auth.PATCH("/notifications/:notification_id", notificationController.ToggleRead)

		//admin only routes
		admin := auth.Group("/")
		admin.Use(middlewares.CheckAdmin)
		{
			admin.POST("/users", userController.Signup)
		}
	}

	return router
}
