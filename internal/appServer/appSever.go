package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/gameroom/config"
	repository "github.com/ds124wfegd/gameroom/internal/database/postgres"
	"github.com/ds124wfegd/gameroom/internal/service"
	"github.com/ds124wfegd/gameroom/internal/transport"
	"github.com/ds124wfegd/gameroom/internal/worker"

	"github.com/ds124wfegd/gameroom/pkg/postgres"
	"github.com/ds124wfegd/gameroom/pkg/queue"
	"github.com/ds124wfegd/gameroom/pkg/redis"
	"github.com/ds124wfegd/gameroom/pkg/scheduler"
	"github.com/ds124wfegd/gameroom/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	loc, err := cfg.Location()
	if err != nil {
		logrus.Fatalf("Invalid venue timezone: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(ctx, db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	reservationRepo := repository.NewReservationRepository(db)
	disablePeriodRepo := repository.NewDisablePeriodRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	userRepo := repository.NewUserRepository(db)
	transactor := repository.NewTransactor(db)

	// Initialize Telegram bot
	var telegramBot queue.TelegramBot
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		telegramBot = telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Timeout)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot disabled, notifications will not be delivered")
	}

	var redisQueue *queue.RedisQueue
	var taskPublisher service.TaskPublisher

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis: %v. Continuing without queue...", err)
		} else {
			defer redisClient.Close()

			redisQueue = queue.NewRedisQueue(redisClient, &queue.RedisQueueConfig{
				Prefix:       cfg.Queue.Prefix,
				MaxRetries:   cfg.Queue.MaxRetries,
				BaseDelay:    cfg.Queue.BaseDelay,
				PollInterval: cfg.Queue.PollInterval,
			})
			defer redisQueue.Close()

			// Создаем адаптер для очереди
			taskPublisher = service.NewQueueAdapter(redisQueue)
		}
	}

	// Initialize services
	reservationService := service.NewReservationService(
		reservationRepo, disablePeriodRepo, roomRepo, userRepo, transactor, taskPublisher, time.Now, loc)
	disablePeriodService := service.NewDisablePeriodService(
		disablePeriodRepo, reservationRepo, roomRepo, transactor, taskPublisher, time.Now, loc)

	// Start queue consumer if queue is available
	if redisQueue != nil {
		taskHandler := queue.NewNotificationHandler(telegramBot, service.NewRecipientDirectory(userRepo, roomRepo))
		if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
			logrus.Errorf("Queue subscriber error: %v", err)
		}
	}

	// Initialize and start scheduler
	statusScheduler, err := scheduler.NewScheduler(reservationService, cfg.Worker.StatusSweepSpec)
	if err != nil {
		logrus.Fatalf("Failed to create status scheduler: %v", err)
	}
	go statusScheduler.Start(ctx)
	logrus.Info("Status scheduler started")

	// Initialize cleanup worker
	cleanupWorker := worker.NewDisablePeriodCleanupWorker(disablePeriodService, cfg.Worker.CleanupInterval, cfg.Worker.DisableRetention)
	go cleanupWorker.Start(ctx)

	// Initialize handlers
	reservationHandler := transport.NewReservationHandler(reservationService)
	disablePeriodHandler := transport.NewDisablePeriodHandler(disablePeriodService)
	var queueMonitor transport.QueueMonitor
	if redisQueue != nil {
		queueMonitor = redisQueue
	}
	healthHandler := transport.NewHealthHandler(db, queueMonitor, cfg.Server.AppVersion)

	// Setup HTTP server
	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		router := transport.InitRoutes(reservationHandler, disablePeriodHandler, healthHandler, cfg.Server.RequestTimeout)
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Infof("App Started on %s (timezone %s)", cfg.GetServerAddress(), loc)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	cancel()
}
