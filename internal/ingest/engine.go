package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/store"
	"go.uber.org/zap"
)

// Inbound is the payload of ws.message bus events: one live message plus
// the thread scope it arrived on.
type Inbound struct {
	Scope   api.Scope
	Message api.Message
}

// Batch is the payload of ws.history_batch bus events: a page of messages
// for one scope, used to warm the cache after a history fetch.
type Batch struct {
	Scope    api.Scope
	Messages []api.Message
}

// Engine mirrors live and historical messages into the local cache.
// It subscribes to "ws." events on the bus and ingests them idempotently;
// the in-memory thread store stays the display source of truth.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewEngine creates a new cache ingest engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to inbound socket events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("ws.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case "ws.message":
		in, ok := evt.Payload.(Inbound)
		if !ok {
			return
		}
		if err := e.IngestMessage(in.Scope, &in.Message); err != nil {
			e.logger.Error("failed to ingest message",
				zap.Error(err),
				zap.Int64("message_id", in.Message.ID))
		}
	case "ws.history_batch":
		batch, ok := evt.Payload.(Batch)
		if !ok {
			return
		}
		if err := e.IngestBatch(batch.Scope, batch.Messages); err != nil {
			e.logger.Error("failed to ingest history batch",
				zap.Error(err),
				zap.Int("count", len(batch.Messages)))
		}
	}
}

// IngestMessage caches a single message and its images (idempotent).
func (e *Engine) IngestMessage(scope api.Scope, msg *api.Message) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	rowID, err := e.db.UpsertMessage(toCached(scope, msg))
	if err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}
	for _, img := range msg.Images {
		if err := e.db.UpsertImage(&store.Image{
			MessageID: rowID,
			ServerID:  img.ID,
			URL:       img.URL,
		}); err != nil {
			return fmt.Errorf("upsert image: %w", err)
		}
	}

	e.bus.Publish(bus.Event{
		Kind:      "message.upserted",
		Timestamp: time.Now(),
		Payload: map[string]int64{
			"scope_id":   scope.ID(),
			"message_id": msg.ID,
		},
	})
	return nil
}

// IngestBatch caches a page of messages in one transaction.
func (e *Engine) IngestBatch(scope api.Scope, msgs []api.Message) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for i := range msgs {
		cached := toCached(scope, &msgs[i])
		var rowID int64
		if err := tx.QueryRow(`
			INSERT INTO messages (scope_kind, scope_id, server_id, sender_id, body, sent_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(scope_kind, scope_id, server_id) DO UPDATE SET
				sender_id = excluded.sender_id,
				body = excluded.body,
				sent_at = excluded.sent_at
			RETURNING id`,
			cached.ScopeKind, cached.ScopeID, cached.ServerID, cached.SenderID, cached.Body, cached.SentAt, now).Scan(&rowID); err != nil {
			return fmt.Errorf("upsert message in batch: %w", err)
		}
		for _, img := range msgs[i].Images {
			if _, err := tx.Exec(`
				INSERT INTO images (message_id, server_id, url)
				VALUES (?, ?, ?)
				ON CONFLICT(message_id, server_id) DO UPDATE SET
					url = excluded.url`,
				rowID, img.ID, img.URL); err != nil {
				return fmt.Errorf("upsert image in batch: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:      "cache.history_batch",
		Timestamp: time.Now(),
		Payload: map[string]int{
			"messages_count": len(msgs),
		},
	})
	return nil
}

func toCached(scope api.Scope, msg *api.Message) *store.Message {
	return &store.Message{
		ScopeKind: scope.Kind(),
		ScopeID:   scope.ID(),
		ServerID:  msg.ID,
		SenderID:  msg.SenderID,
		Body:      msg.Text,
		SentAt:    msg.CreatedAt.UnixMilli(),
	}
}
