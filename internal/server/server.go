package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbazaar/config"
	"chatbazaar/internal/handler"
	"chatbazaar/internal/middleware"
	appredis "chatbazaar/internal/redis"
	"chatbazaar/internal/services"
	"chatbazaar/internal/transport/httpdto"
	"chatbazaar/internal/websocket"
	"chatbazaar/pkg/database"
	"chatbazaar/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Payment      *handler.PaymentHandler
	Attachment   *handler.AttachmentHandler
	WebSocket    *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *appredis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.FrontendURL))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	s.engine.GET("/ws", handlers.WebSocket.Connect)

	auth := middleware.AuthMiddleware(authService)

	chat := s.engine.Group("/api/chat", auth)
	{
		chat.POST("/conversations", handlers.Conversation.Create)
		chat.GET("/conversations", handlers.Conversation.List)
		chat.GET("/conversations/:conversationId", handlers.Conversation.GetByID)
		chat.GET("/conversations/:conversationId/messages", handlers.Message.List)

		chat.POST("/messages", middleware.MessageRateLimitMiddleware(limiter), handlers.Message.Send)
		chat.PATCH("/messages/:messageId/read", handlers.Message.MarkRead)
		chat.DELETE("/messages/:messageId", handlers.Message.Delete)
		chat.GET("/unread-counts", handlers.Message.UnreadCounts)

		chat.POST("/attachments/presign", handlers.Attachment.Presign)
		chat.GET("/attachments/*key", handlers.Attachment.Download)
	}

	payment := s.engine.Group("/api/payment")
	{
		// The webhook authenticates via its own signature, not a bearer token.
		payment.POST("/stripe/webhook", handlers.Payment.StripeWebhook)

		payment.POST("/razorpay/create-order", auth, handlers.Payment.CreateRazorpayOrder)
		payment.POST("/razorpay/verify", auth, handlers.Payment.VerifyRazorpayPayment)
		payment.POST("/stripe/create-checkout", auth, handlers.Payment.CreateStripeCheckout)
		payment.POST("/stripe/verify", auth, handlers.Payment.VerifyStripeSession)
		payment.GET("/orders", auth, handlers.Payment.ListOrders)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
