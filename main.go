package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"aquaguard-backend/common"
	"aquaguard-backend/config"
	"aquaguard-backend/controllers"
	"aquaguard-backend/eventhandlers"
	"aquaguard-backend/models"
	"aquaguard-backend/realtime"
	"aquaguard-backend/services"
)

func main() {
	cfg := config.Load()
	log := common.GetLogger("main")

	if cfg.DatabaseURL == "" || cfg.KafkaBroker == "" || cfg.AIServiceURL == "" {
		log.Fatal("DATABASE_URL, KAFKA_BROKER, and AI_SERVICE_URL environment variables must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pgxpool.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if err := createTables(ctx, db); err != nil {
		log.Fatal("failed to create tables", zap.Error(err))
	}

	bus := realtime.NewBus()
	defer bus.Close()

	accountService := services.NewAccountService(db)
	videoService := services.NewVideoService(db)
	alertLogService := services.NewAlertLogService(db)
	detectorClient := services.NewDetectorClient(cfg.AIServiceURL, cfg.DetectTimeout)
	detectionService := services.NewDetectionService(videoService, detectorClient, bus, cfg.DetectRate, cfg.DetectBurst)

	accountController := controllers.NewAccountController(accountService)
	videoController := controllers.NewVideoController(videoService, detectionService, cfg.ProcessedDir)
	detectionController := controllers.NewDetectionController(detectionService, alertLogService, bus, detectorClient.StreamURL())
	alertLogController := controllers.NewAlertLogController(alertLogService)

	kafkaHandler := eventhandlers.NewKafkaHandler(
		[]string{cfg.KafkaBroker}, cfg.KafkaTopic, cfg.KafkaGroupID,
		db, alertLogService, bus)
	go kafkaHandler.Start(ctx)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "server is running"})
	})

	lifeguard := app.Group("/lifeguard")
	lifeguard.Post("/register", accountController.Register(models.RoleLifeguard))
	lifeguard.Post("/login", accountController.Login(models.RoleLifeguard))
	lifeguard.Get("/all", accountController.List(models.RoleLifeguard))
	lifeguard.Delete("/remove/:phone_number", accountController.Remove(models.RoleLifeguard))
	lifeguard.Get("/videos/:lifeguard_id", videoController.Assigned)
	lifeguard.Get("/recent-video", videoController.RecentDetected)

	supervisor := app.Group("/supervisor")
	supervisor.Post("/register", accountController.Register(models.RoleSupervisor))
	supervisor.Post("/login", accountController.Login(models.RoleSupervisor))
	supervisor.Get("/all", accountController.List(models.RoleSupervisor))
	supervisor.Delete("/remove/:phone_number", accountController.Remove(models.RoleSupervisor))
	supervisor.Post("/upload", videoController.Upload)
	supervisor.Get("/videos", videoController.List)
	supervisor.Post("/alert", detectionController.RaiseAlert)

	app.Get("/videos", videoController.List)
	app.Get("/videos/:id", videoController.Stream)
	app.Get("/processed-video/:video_id", videoController.Processed)
	app.Post("/detect-drowning", detectionController.DetectDrowning)
	app.Get("/video-stream", detectionController.VideoStream)
	app.Get("/alert-logs", alertLogController.List)

	app.Get("/ws/stats", func(c *fiber.Ctx) error {
		return c.JSON(bus.Stats())
	})
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(realtime.Handler(bus, cfg.SessionBuffer)))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = app.Shutdown()
	}()

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func createTables(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lifeguard (
			id BIGSERIAL PRIMARY KEY,
			lname TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			phone_number TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS supervisor (
			id BIGSERIAL PRIMARY KEY,
			lname TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			phone_number TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS videos (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT NOT NULL,
			filedata BYTEA NOT NULL,
			uploaded_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS alert_logs (
			id BIGSERIAL PRIMARY KEY,
			video_id BIGINT REFERENCES videos(id),
			lifeguard_ids BIGINT[] NOT NULL,
			supervisor_id BIGINT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS detected_videos (
			id BIGSERIAL PRIMARY KEY,
			video_id BIGINT REFERENCES videos(id),
			detected_video_path TEXT NOT NULL,
			detected_at TIMESTAMPTZ DEFAULT NOW()
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
