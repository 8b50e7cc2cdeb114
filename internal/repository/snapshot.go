package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

const defaultPrefix = "tictactoe:session:"

// SnapshotRepository keeps the latest snapshot of each session and announces
// every saved snapshot on the events channel.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
	Channel() string
}

type Option func(*dbSnapshot)

// WithTTL sets the expiration of stored snapshots. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *dbSnapshot) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *dbSnapshot) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

type dbSnapshot struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSnapshotRepository(client *redis.Client, opts ...Option) SnapshotRepository {
	repo := &dbSnapshot{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		opt(repo)
	}

	return repo
}

func (that *dbSnapshot) key(sessionID string) string {
	return that.prefix + sessionID
}

func (that *dbSnapshot) Channel() string {
	return that.prefix + "events"
}

func (that *dbSnapshot) Save(ctx context.Context, snapshot *entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, that.key(snapshot.SessionID), snapshotJSON, that.ttl)
		pipe.Publish(ctx, that.Channel(), snapshotJSON)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}
