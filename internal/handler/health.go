package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/alluvi/go-storefront-api/internal/worker"
)

type HealthHandler struct {
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	amqpConn    *amqp.Connection
	notifier    *worker.ChatNotifier
	startedAt   time.Time
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection, notifier *worker.ChatNotifier) *HealthHandler {
	return &HealthHandler{
		dbPool:      dbPool,
		redisClient: redisClient,
		amqpConn:    amqpConn,
		notifier:    notifier,
		startedAt:   time.Now(),
	}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Readyz reports every backend the request path depends on, plus the chat
// notifier loop, and fails readiness when any of them is down.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	ready := true
	checks := gin.H{}

	if err := h.dbPool.Ping(ctx); err != nil {
		checks["postgres"] = "unavailable"
		ready = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unavailable"
		ready = false
	} else {
		checks["redis"] = "ok"
	}

	if h.amqpConn.IsClosed() {
		checks["rabbitmq"] = "unavailable"
		ready = false
	} else {
		checks["rabbitmq"] = "ok"
	}

	if h.notifier.Running() {
		checks["chat_notifier"] = "running"
	} else {
		checks["chat_notifier"] = "stopped"
		ready = false
	}

	checks["status"] = "ok"
	status := http.StatusOK
	if !ready {
		checks["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, checks)
}
