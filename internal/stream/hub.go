package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"backend-runtracker/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "runs:"
	channelSuffix = ":snapshots"

	subscribeTimeout = 2 * time.Second
)

// Hub fans run snapshots out to websocket clients. With Redis configured,
// every broadcast goes through a pub/sub channel so all API replicas deliver
// it; otherwise delivery is local only.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	log     *logger.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RunID string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	h := &Hub{
		log:     log.WithComponent("stream"),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		defer cancel()

		pubsub := redisClient.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
		if _, err := pubsub.Receive(ctx); err != nil {
			h.log.Warn("redis subscribe failed, streaming locally only", zap.Error(err))
			_ = pubsub.Close()
		} else {
			h.redis = redisClient
			h.pubsub = pubsub
			go h.forward(pubsub.Channel())
		}
	}
	return h
}

func (h *Hub) Register(runID string) *Client {
	client := &Client{
		RunID: runID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[runID] == nil {
		h.clients[runID] = map[*Client]struct{}{}
	}
	h.clients[runID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if runClients, ok := h.clients[client.RunID]; ok {
		if _, registered := runClients[client]; !registered {
			return
		}
		delete(runClients, client)
		if len(runClients) == 0 {
			delete(h.clients, client.RunID)
		}
		close(client.Send)
	}
}

// Broadcast sends payload to every client watching runID.
func (h *Hub) Broadcast(runID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(runID), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn("redis publish failed, delivering locally", zap.String("run_id", runID), zap.Error(err))
	}
	h.deliver(runID, payload)
}

// Publish marshals v as JSON and broadcasts it.
func (h *Hub) Publish(runID string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal stream payload", zap.String("run_id", runID), zap.Error(err))
		return
	}
	h.Broadcast(runID, payload)
}

func (h *Hub) Close() error {
	if h.pubsub != nil {
		return h.pubsub.Close()
	}
	return nil
}

func (h *Hub) deliver(runID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[runID] {
		select {
		case client.Send <- payload:
		default:
			h.log.Debug("dropping snapshot for slow client", zap.String("run_id", runID))
		}
	}
}

func (h *Hub) forward(messages <-chan *redis.Message) {
	for msg := range messages {
		runID := runIDFromChannel(msg.Channel)
		if runID == "" {
			continue
		}
		h.deliver(runID, []byte(msg.Payload))
	}
}

func redisChannel(runID string) string {
	return channelPrefix + runID + channelSuffix
}

func runIDFromChannel(ch string) string {
	// runs:{id}:snapshots
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
