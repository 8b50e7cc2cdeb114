package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

const (
	publishBuffer  = 64
	publishTimeout = 2 * time.Second
)

type snapshotRepo interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
}

// Publisher forwards session snapshots to storage in the order they were produced.
// OnSnapshot never blocks; snapshots are dropped when the buffer is full.
type Publisher struct {
	logger *slog.Logger
	repo   snapshotRepo
	events chan entity.Snapshot
}

func NewPublisher(logger *slog.Logger, repo snapshotRepo) *Publisher {
	return &Publisher{
		logger: logger.With("component", "publisher"),
		repo:   repo,
		events: make(chan entity.Snapshot, publishBuffer),
	}
}

func (that *Publisher) OnSnapshot(snapshot entity.Snapshot) {
	select {
	case that.events <- snapshot:
	default:
		that.logger.Warn("snapshot dropped, publisher is behind", "session", snapshot.SessionID, "token", snapshot.Token)
	}
}

// Run drains snapshots until ctx is done.
func (that *Publisher) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case <-ctx.Done():
			log.Info("publisher stopped")
			return
		case snapshot := <-that.events:
			that.publish(ctx, &snapshot)
		}
	}
}

func (that *Publisher) publish(ctx context.Context, snapshot *entity.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := that.repo.Save(ctx, snapshot); err != nil {
		that.logger.Error("could not publish snapshot", "session", snapshot.SessionID, "error", err)
	}
}
