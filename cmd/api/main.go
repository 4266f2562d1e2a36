package main

import (
	"context"
	"log"
	"time"

	"chatbazaar/config"
	"chatbazaar/internal/domain/conversation"
	"chatbazaar/internal/domain/message"
	"chatbazaar/internal/domain/order"
	"chatbazaar/internal/domain/product"
	"chatbazaar/internal/domain/user"
	"chatbazaar/internal/gateway"
	"chatbazaar/internal/handler"
	"chatbazaar/internal/presence"
	appredis "chatbazaar/internal/redis"
	"chatbazaar/internal/repository"
	"chatbazaar/internal/server"
	"chatbazaar/internal/services"
	"chatbazaar/internal/storage"
	"chatbazaar/internal/websocket"
	"chatbazaar/pkg/database"
	"chatbazaar/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)
	if err := database.DB.AutoMigrate(
		&user.User{},
		&conversation.Conversation{},
		&conversation.Participant{},
		&message.Message{},
		&message.Read{},
		&message.Deletion{},
		&order.Order{},
		&product.Product{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	appredis.Initialize(appredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	redisClient := appredis.GetClient()
	limiter := appredis.NewRateLimiter(redisClient, appredis.DefaultRateLimitConfig())

	hub := websocket.NewHub()
	reg := presence.NewRegistry()

	instanceID := uuid.New().String()
	emitter := websocket.NewRedisEmitter(hub, appredis.NewPublisher(redisClient), instanceID, l)
	bridge := websocket.NewBridge(appredis.NewSubscriber(redisClient), hub, instanceID, l)
	go func() {
		for {
			if err := bridge.Run(context.Background()); err != nil {
				l.Errorf("ws bridge stopped: %v; reconnecting", err)
				time.Sleep(time.Second)
			}
		}
	}()

	conversationRepo := repository.NewConversationRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	orderRepo := repository.NewOrderRepository(database.DB)
	productRepo := repository.NewProductRepository(database.DB)
	uow := repository.NewUnitOfWork(database.DB)

	authService := services.NewAuthService(cfg)
	conversationService := services.NewConversationService(conversationRepo, emitter, l)
	messageService := services.NewMessageService(conversationRepo, messageRepo, emitter, l)
	paymentService := services.NewPaymentService(
		uow,
		orderRepo,
		productRepo,
		gateway.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		gateway.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.FrontendURL),
		cfg.RazorpayKeySecret,
		l,
	)

	var store *storage.Client
	if cfg.S3Bucket != "" {
		var err error
		store, err = storage.NewClient(context.Background(), storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			log.Fatalf("Failed to initialize attachment storage: %v", err)
		}
	}

	handlers := &server.Handlers{
		Conversation: handler.NewConversationHandler(conversationService, messageService),
		Message:      handler.NewMessageHandler(messageService),
		Payment:      handler.NewPaymentHandler(paymentService, l),
		Attachment:   handler.NewAttachmentHandler(store),
		WebSocket:    websocket.NewHandler(authService, hub, emitter, reg, conversationService, messageService, l),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
