package database

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SQLProbe pings the pool behind db.
func SQLProbe(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// RedisProbe issues a PING.
func RedisProbe(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// NATSProbe reports the connection state; a reconnecting client counts as down.
func NATSProbe(conn *nats.Conn) func(ctx context.Context) error {
	return func(context.Context) error {
		if !conn.IsConnected() {
			return errors.New("nats: " + conn.Status().String())
		}
		return nil
	}
}
