package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PubSub redis publish/subscribe client
type PubSub struct {
	client *redis.Client
}

// NewPubSub creates a PubSub instance
func NewPubSub(addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PubSub{
		client: client,
	}, nil
}

// DiagnosisNotification completion notification message
type DiagnosisNotification struct {
	ParcelID    string `json:"parcel_id"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"` // DIAGNOSED/FAILED
	Timestamp   int64  `json:"timestamp"`
}

// PublishDiagnosisComplete publishes a completion notification
// to the given channel (suggested: parcel_diagnosis_complete).
func (p *PubSub) PublishDiagnosisComplete(
	ctx context.Context,
	channel string,
	notification *DiagnosisNotification,
) error {
	msgJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := p.client.Publish(ctx, channel, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Subscribe subscribes to a channel (used in tests)
func (p *PubSub) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return p.client.Subscribe(ctx, channel)
}

// Close closes the redis connection
func (p *PubSub) Close() error {
	return p.client.Close()
}
