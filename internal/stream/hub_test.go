package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("post-1")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("post-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if postIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected post id")
	}
	if postIDFromChannel("bad") != "" {
		t.Fatalf("expected empty post id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("post-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("post-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("post-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// a publish on the post's own channel reaches subscribed hubs
	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), redisChannel("post-redis"), "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	// the earlier broadcast may echo back through the subscription first
	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case msg := <-ws.Send:
			if string(msg) == "pong" {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for redis message")
		}
	}
}

// Two hubs sharing one redis stand in for two server instances: a broadcast
// on one must reach a client registered on the other.
func TestHubBridgesInstances(t *testing.T) {
	s := miniredis.RunT(t)

	clientA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientB.Close()

	hubA := NewHub(clientA)
	hubB := NewHub(clientB)

	ws := hubB.Register("post-x")
	defer hubB.Unregister(ws)

	// give hubB's pattern subscription time to land
	time.Sleep(50 * time.Millisecond)
	hubA.Broadcast("post-x", []byte("hello"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("broadcast on one hub never reached the other")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("post-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("post-bad", []byte("ping"))
}
