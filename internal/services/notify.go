package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vitatrack/vitatrack-backend/internal/database"
)

// MessageEvent is the payload published over Redis and pushed to the
// recipient's WebSocket when a message is created for them.
type MessageEvent struct {
	Type       string    `json:"type"` // "message"
	MessageID  string    `json:"message_id"`
	Subject    string    `json:"subject"`
	Priority   string    `json:"priority"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// NotifyConn is the minimal interface the WebSocket connection must satisfy.
type NotifyConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// notifyHub tracks one connection per user. A reconnect replaces the old one.
type notifyHub struct {
	mu          sync.RWMutex
	connections map[string]NotifyConn // keyed by user id hex
}

var (
	hub            = &notifyHub{connections: make(map[string]NotifyConn)}
	notifyStarted  sync.Once
	notifyChanPref = "notify:user:"
)

// RegisterNotifyConnection registers or replaces a user's connection.
func RegisterNotifyConnection(userID string, conn NotifyConn) {
	hub.mu.Lock()
	hub.connections[userID] = conn
	hub.mu.Unlock()
}

// UnregisterNotifyConnection removes a user's connection if it is still the
// registered one.
func UnregisterNotifyConnection(userID string, conn NotifyConn) {
	hub.mu.Lock()
	if hub.connections[userID] == conn {
		delete(hub.connections, userID)
	}
	hub.mu.Unlock()
}

// fanOutMessageEvent delivers an event to the local connection for the user,
// if any. Best-effort, non-blocking.
func fanOutMessageEvent(userID string, event MessageEvent) {
	hub.mu.RLock()
	conn, ok := hub.connections[userID]
	hub.mu.RUnlock()
	if !ok {
		return
	}

	go func(c NotifyConn) {
		if err := c.WriteJSON(event); err != nil {
			log.Printf("error writing message event to websocket: %v", err)
		}
	}(conn)
}

// StartNotifySubscriber ensures a single shared Redis listener per instance.
func StartNotifySubscriber(ctx context.Context) {
	notifyStarted.Do(func() {
		go runNotifySubscriber(ctx)
	})
}

func runNotifySubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; notify subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, notifyChanPref+"*")
			defer pubsub.Close()

			log.Println("✅ Message notify subscriber started (pattern: notify:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event MessageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal message event: %v", err)
					continue
				}

				userID := strings.TrimPrefix(msg.Channel, notifyChanPref)
				fanOutMessageEvent(userID, event)
			}
		}()
	}
}

// PublishMessageEvent publishes a notification for one recipient; called when
// a direct or broadcast message is created.
func PublishMessageEvent(ctx context.Context, recipientID string, event MessageEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, notifyChanPref+recipientID, data).Err()
}
