package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans out post activity (new likes and comments) to websocket
// subscribers, bridging instances through redis pub/sub when configured.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	PostID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(postID string) *Client {
	client := &Client{
		PostID: postID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[postID] == nil {
		h.clients[postID] = map[*Client]struct{}{}
	}
	h.clients[postID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if postClients, ok := h.clients[client.PostID]; ok {
		delete(postClients, client)
		if len(postClients) == 0 {
			delete(h.clients, client.PostID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(postID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[postID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(postID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	// pattern subscription, so events published by other instances on any
	// posts:{id}:activity channel reach this hub's clients
	pubsub := h.redis.PSubscribe(ctx, "posts:*:activity")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		postID := postIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[postID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(postID string) string {
	return "posts:" + postID + ":activity"
}

func postIDFromChannel(ch string) string {
	// posts:{post}:activity
	const prefix = "posts:"
	const suffix = ":activity"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
