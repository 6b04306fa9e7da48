package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/alluvi/go-storefront-api/internal/model"
	"github.com/alluvi/go-storefront-api/internal/realtime"
	"github.com/alluvi/go-storefront-api/internal/repository"
)

const (
	chatQueueName  = "order_chat"
	dlxExchange    = "order_chat.dlx"
	dlqQueueName   = "order_chat.dlq"
	idempotencyTTL = 24 * time.Hour
)

// ChatNotifier consumes checkout handoffs and posts the order reference code
// into the buyer's support conversation. The effect is best-effort with
// respect to the order: a failing notification lands in the DLQ and never
// touches order state.
type ChatNotifier struct {
	channel     *amqp.Channel
	chatRepo    repository.ChatRepository
	redisClient *redis.Client
	hub         *realtime.Hub
	log         *slog.Logger
	done        chan struct{}
	running     atomic.Bool
}

func NewChatNotifier(
	ch *amqp.Channel,
	chatRepo repository.ChatRepository,
	redisClient *redis.Client,
	hub *realtime.Hub,
	log *slog.Logger,
) *ChatNotifier {
	return &ChatNotifier{
		channel:     ch,
		chatRepo:    chatRepo,
		redisClient: redisClient,
		hub:         hub,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares the handoff queue with its DLX/DLQ pair.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, chatQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(chatQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": chatQueueName,
	}); err != nil {
		return fmt.Errorf("declare chat queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *ChatNotifier) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(chatQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.running.Store(true)
	go func() {
		defer w.running.Store(false)
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("chat notifier started")
	return nil
}

func (w *ChatNotifier) Stop() { close(w.done) }

// Running reports whether the consume loop is alive; it goes false once the
// loop exits, whether by Stop, context cancel or a closed delivery channel.
func (w *ChatNotifier) Running() bool { return w.running.Load() }

func (w *ChatNotifier) processMessage(ctx context.Context, msg amqp.Delivery) {
	var handoff model.OrderChatMessage
	if err := json.Unmarshal(msg.Body, &handoff); err != nil {
		w.log.Error("unmarshal chat handoff", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", handoff.OrderID, "user_id", handoff.UserID)

	// Redelivered handoffs must not duplicate the chat message.
	idempotencyKey := "order_chat_sent:" + handoff.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("chat notification already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.notify(ctx, handoff); err != nil {
		log.Error("send chat notification failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ; the order is untouched
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("chat notification sent")
}

func (w *ChatNotifier) notify(ctx context.Context, handoff model.OrderChatMessage) error {
	conv, err := w.chatRepo.GetActiveConversation(ctx, handoff.UserID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		conv = &model.Conversation{UserID: handoff.UserID, Status: model.ConversationStatusActive}
		if err := w.chatRepo.CreateConversation(ctx, conv); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
	}

	message := &model.Message{
		ConversationID: conv.ID,
		SenderID:       handoff.UserID,
		Type:           model.MessageTypeText,
		Content:        fmt.Sprintf("Hello, I just placed a new order. Here is my Reference Code: %s", handoff.ReferenceCode),
		IsRead:         false,
	}
	if err := w.chatRepo.InsertMessage(ctx, message); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if err := w.chatRepo.TouchLastMessage(ctx, conv.ID, time.Now()); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	if w.hub != nil {
		w.hub.PublishMessage(ctx, message)
	}
	return nil
}
