package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aptrack-go-api/internal/dto"
	"github.com/noah-isme/aptrack-go-api/internal/observability"
)

const feedbackBufferSize = 16

// Notifier fans feedback items out to their recipients: in-process SSE
// subscribers directly, and peer nodes over redis pub/sub and NATS.
type Notifier interface {
	FeedbackNotifier
	Subscribe(recipientID uint) (<-chan dto.FeedbackResponse, func())
	Start(ctx context.Context)
}

type notifier struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *feedbackBroker
	nodeID       string
}

type feedbackEvent struct {
	Source   string               `json:"source"`
	Feedback dto.FeedbackResponse `json:"feedback"`
	SentAt   time.Time            `json:"sent_at"`
}

type feedbackBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.FeedbackResponse]struct{}
}

// NewNotifier constructs a feedback notifier. Either broker client may be
// nil; fan-out degrades to in-process delivery only.
func NewNotifier(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) Notifier {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":feedback"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".feedback"
	}

	return &notifier{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "feedback_notifier").Logger(),
		broker: &feedbackBroker{
			subscribers: make(map[uint]map[chan dto.FeedbackResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (n *notifier) Start(ctx context.Context) {
	if n.redis != nil && n.redisChannel != "" {
		go n.consumeRedis(ctx)
	}
	if n.nats != nil && n.natsSubject != "" {
		go n.consumeNATS(ctx)
	}
}

func (n *notifier) Notify(ctx context.Context, feedback dto.FeedbackResponse) {
	n.broker.broadcast(feedback.RecipientID, feedback)
	observability.FeedbackDelivered().WithLabelValues("local").Inc()

	event := feedbackEvent{
		Source:   n.nodeID,
		Feedback: feedback,
		SentAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to encode feedback event")
		return
	}

	if n.redis != nil && n.redisChannel != "" {
		if err := n.redis.Publish(ctx, n.redisChannel, payload).Err(); err != nil {
			n.logger.Warn().Err(err).Msg("failed to publish feedback to redis")
		} else {
			observability.FeedbackDelivered().WithLabelValues("redis").Inc()
		}
	}

	if n.nats != nil && n.natsSubject != "" {
		if err := n.nats.Publish(n.natsSubject, payload); err != nil {
			n.logger.Warn().Err(err).Msg("failed to publish feedback to nats")
		} else {
			observability.FeedbackDelivered().WithLabelValues("nats").Inc()
		}
	}
}

func (n *notifier) Subscribe(recipientID uint) (<-chan dto.FeedbackResponse, func()) {
	channel := make(chan dto.FeedbackResponse, feedbackBufferSize)
	n.broker.subscribe(recipientID, channel)

	cleanup := func() {
		n.broker.unsubscribe(recipientID, channel)
	}

	return channel, cleanup
}

func (n *notifier) consumeRedis(ctx context.Context) {
	pubsub := n.redis.Subscribe(ctx, n.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			n.logger.Error().Err(err).Msg("feedback redis subscription closed")
			return
		}
		n.handleEvent([]byte(msg.Payload))
	}
}

func (n *notifier) consumeNATS(ctx context.Context) {
	sub, err := n.nats.QueueSubscribe(n.natsSubject, "aptrack-feedback", func(msg *nats.Msg) {
		n.handleEvent(msg.Data)
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to subscribe to nats feedback subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			n.logger.Warn().Err(err).Msg("failed to drain feedback nats subscription")
		}
	}()
}

func (n *notifier) handleEvent(payload []byte) {
	var event feedbackEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		n.logger.Warn().Err(err).Msg("invalid feedback event payload")
		return
	}

	if event.Source == n.nodeID {
		return
	}

	n.broker.broadcast(event.Feedback.RecipientID, event.Feedback)
}

func (b *feedbackBroker) subscribe(recipientID uint, ch chan dto.FeedbackResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[recipientID]; !exists {
		b.subscribers[recipientID] = make(map[chan dto.FeedbackResponse]struct{})
	}
	b.subscribers[recipientID][ch] = struct{}{}
}

func (b *feedbackBroker) unsubscribe(recipientID uint, ch chan dto.FeedbackResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[recipientID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, recipientID)
		}
	}
}

func (b *feedbackBroker) broadcast(recipientID uint, feedback dto.FeedbackResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[recipientID] {
		select {
		case ch <- feedback:
		default:
		}
	}
}
