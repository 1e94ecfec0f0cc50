package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/cache"
	"github.com/BruksfildServices01/service-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/service-scheduler/internal/db"
	infraRepo "github.com/BruksfildServices01/service-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/service-scheduler/internal/logger"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
	"github.com/BruksfildServices01/service-scheduler/internal/routes"
	ucAvailability "github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

func main() {

	cfg := config.Load()
	zlog := logger.New()
	defer zlog.Sync()

	db := dbpkg.NewDB(cfg)

	queueRedis := cache.NewQueueClient(cfg)
	cacheRedis := cache.NewCacheClient(cfg)

	// ======================================================
	// DISPONIBILIDADE
	// ======================================================
	bookingRepo := infraRepo.NewBookingGormRepository(db)
	availabilityCache := ucAvailability.NewRedisCache(cacheRedis, cfg.AvailabilityCacheTTL, zlog)
	engine := ucAvailability.NewEngine(bookingRepo, availabilityCache, zlog)

	// ======================================================
	// FILA DE NOTIFICAÇÕES
	// ======================================================
	queue := notify.NewRedisQueue(queueRedis, cfg.QueueMaxRetries)

	senders := notify.NewSenderRegistry()
	senders.Register(notify.ChannelWhatsApp, notify.NewWebhookSender(cfg.WhatsAppWebhookURL, cfg.WhatsAppWebhookToken))
	senders.Register(notify.ChannelSMS, notify.NewWebhookSender(cfg.SMSWebhookURL, cfg.SMSWebhookToken))
	senders.Register(notify.ChannelEmail, notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom))

	worker := notify.NewWorker(
		queue,
		senders,
		notify.NewDefaultRenderer(),
		notify.NewGormDeliveryRecorder(db),
		zlog,
		notify.WorkerConfig{
			PollInterval:    cfg.QueuePollInterval,
			PromoteInterval: cfg.QueuePromoteInterval,
			LeaseTTL:        cfg.QueueLeaseTTL,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go worker.Run(ctx)

	// ======================================================
	// HTTP
	// ======================================================
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, routes.Deps{
		DB:     db,
		Logger: zlog,
		Engine: engine,
		Queue:  queue,
		Worker: worker,
	})

	zlog.Info("server starting", zap.String("addr", cfg.Addr()))
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
