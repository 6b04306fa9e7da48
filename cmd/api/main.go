package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/alluvi/go-storefront-api/internal/config"
	"github.com/alluvi/go-storefront-api/internal/handler"
	"github.com/alluvi/go-storefront-api/internal/middleware"
	"github.com/alluvi/go-storefront-api/internal/realtime"
	"github.com/alluvi/go-storefront-api/internal/repository"
	"github.com/alluvi/go-storefront-api/internal/service"
	"github.com/alluvi/go-storefront-api/internal/storage"
	"github.com/alluvi/go-storefront-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Cloudinary
	uploader, err := storage.NewCloudinaryUploader(cfg.Cloudinary.URL)
	if err != nil {
		log.Error("init cloudinary", "error", err)
		os.Exit(1)
	}

	// Repositories
	profileRepo := repository.NewProfileRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	chatRepo := repository.NewChatRepository(dbPool)

	// Realtime bridge
	hub := realtime.NewHub(realtime.NewRedisBroker(redisClient), log, cfg.Chat.TypingExpiry)

	// Services
	authSvc := service.NewAuthService(profileRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(productRepo, redisClient)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, amqpCh, log)
	chatSvc := service.NewChatService(chatRepo, hub)
	adminSvc := service.NewAdminService(profileRepo, productRepo, orderRepo, chatRepo)

	// Worker
	notifier := worker.NewChatNotifier(amqpCh, chatRepo, redisClient, hub, log)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc, uploader)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	chatH := handler.NewChatHandler(chatSvc, hub, uploader)
	adminH := handler.NewAdminHandler(adminSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn, notifier)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		adminProducts := products.Group("", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminOnly())
		adminProducts.POST("", productH.Create)
		adminProducts.PUT("/:id", productH.Update)
		adminProducts.DELETE("/:id", productH.Delete)
		adminProducts.POST("/images", productH.UploadImage)

		cart := v1.Group("/cart", middleware.AuthMiddleware(cfg.JWT.Secret))
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)

		orders := v1.Group("/orders", middleware.AuthMiddleware(cfg.JWT.Secret))
		orders.POST("", orderH.Checkout)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)

		chat := v1.Group("/chat", middleware.AuthMiddleware(cfg.JWT.Secret))
		chat.GET("/conversation", chatH.GetConversation)
		chat.GET("/conversations/:id/messages", chatH.ListMessages)
		chat.POST("/conversations/:id/messages", chatH.SendMessage)
		chat.POST("/conversations/:id/read", chatH.MarkRead)
		chat.POST("/conversations/:id/typing", chatH.Typing)
		chat.GET("/conversations/:id/events", chatH.StreamEvents)
		chat.POST("/attachments", chatH.UploadAttachment)

		admin := v1.Group("/admin", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminOnly())
		admin.GET("/dashboard", adminH.Dashboard)
		admin.GET("/orders", orderH.SearchOrders)
		admin.POST("/orders/:id/confirm", orderH.ConfirmOrder)
		admin.POST("/orders/:id/cancel", orderH.CancelOrder)
		admin.GET("/chat/conversations", chatH.ListConversations)
		admin.POST("/chat/conversations/:id/close", chatH.CloseConversation)
	}

	if err := notifier.Start(ctx); err != nil {
		log.Error("start chat notifier", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	notifier.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
