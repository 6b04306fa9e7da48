package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alluvi/go-storefront-api/internal/model"
)

type EventKind string

const (
	EventMessage       EventKind = "message"
	EventTyping        EventKind = "typing"
	EventTypingStopped EventKind = "typing_stopped"
)

// Event is one item on a conversation channel. Message is set for
// EventMessage; UserID identifies the typist for EventTyping.
type Event struct {
	Kind    EventKind      `json:"kind"`
	Message *model.Message `json:"message,omitempty"`
	UserID  uuid.UUID      `json:"user_id,omitempty"`
}

func channelFor(conversationID uuid.UUID) string {
	return "chat:" + conversationID.String()
}

// Hub publishes chat events and opens per-conversation feeds. Publishing is
// best-effort: failures are logged, never returned to the write path.
type Hub struct {
	broker       Broker
	log          *slog.Logger
	typingExpiry time.Duration
}

func NewHub(broker Broker, log *slog.Logger, typingExpiry time.Duration) *Hub {
	if typingExpiry <= 0 {
		typingExpiry = 3 * time.Second
	}
	return &Hub{broker: broker, log: log, typingExpiry: typingExpiry}
}

func (h *Hub) PublishMessage(ctx context.Context, msg *model.Message) {
	h.publish(ctx, msg.ConversationID, Event{Kind: EventMessage, Message: msg})
}

// PublishTyping is emitted once per keystroke by the sender, fire-and-forget.
func (h *Hub) PublishTyping(ctx context.Context, conversationID, userID uuid.UUID) {
	h.publish(ctx, conversationID, Event{Kind: EventTyping, UserID: userID})
}

func (h *Hub) publish(ctx context.Context, conversationID uuid.UUID, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal realtime event", "error", err)
		return
	}
	if err := h.broker.Publish(ctx, channelFor(conversationID), payload); err != nil {
		h.log.Error("publish realtime event", "conversation_id", conversationID, "error", err)
	}
}

// Feed is the consumer end of one conversation's channel. Message events are
// deduplicated by id, so duplicate broker deliveries surface once. A typing
// signal from another user is followed by EventTypingStopped after the expiry
// window of silence; each new signal resets the window.
type Feed struct {
	Events <-chan Event

	cancel context.CancelFunc
	sub    Subscription
}

func (h *Hub) OpenFeed(ctx context.Context, conversationID, viewerID uuid.UUID) (*Feed, error) {
	sub, err := h.broker.Subscribe(ctx, channelFor(conversationID))
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan Event)
	feed := &Feed{Events: events, cancel: cancel, sub: sub}

	go h.run(ctx, viewerID, sub, events)
	return feed, nil
}

// Close tears the subscription down; the Events channel is closed after the
// loop drains.
func (f *Feed) Close() {
	f.cancel()
	_ = f.sub.Close()
}

func (h *Hub) run(ctx context.Context, viewerID uuid.UUID, sub Subscription, events chan<- Event) {
	defer close(events)

	seen := make(map[uuid.UUID]struct{})
	typingTimer := time.NewTimer(h.typingExpiry)
	if !typingTimer.Stop() {
		select {
		case <-typingTimer.C:
		default:
		}
	}
	typingActive := false

	for {
		select {
		case <-ctx.Done():
			return

		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				h.log.Error("decode realtime event", "error", err)
				continue
			}

			switch ev.Kind {
			case EventMessage:
				if ev.Message == nil {
					continue
				}
				if _, dup := seen[ev.Message.ID]; dup {
					continue
				}
				seen[ev.Message.ID] = struct{}{}
				// A message from the other side ends their typing state.
				if typingActive && ev.Message.SenderID != viewerID {
					typingActive = false
					if !typingTimer.Stop() {
						select {
						case <-typingTimer.C:
						default:
						}
					}
					select {
					case events <- Event{Kind: EventTypingStopped, UserID: ev.Message.SenderID}:
					case <-ctx.Done():
						return
					}
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}

			case EventTyping:
				if ev.UserID == viewerID {
					continue
				}
				if !typingTimer.Stop() {
					select {
					case <-typingTimer.C:
					default:
					}
				}
				typingTimer.Reset(h.typingExpiry)
				if !typingActive {
					typingActive = true
					select {
					case events <- ev:
					case <-ctx.Done():
						return
					}
				}
			}

		case <-typingTimer.C:
			if typingActive {
				typingActive = false
				select {
				case events <- Event{Kind: EventTypingStopped}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
