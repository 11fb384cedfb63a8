package outbox

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/store"
	"go.uber.org/zap"
)

// Submitter posts a drafted message to the backend. Satisfied by the API
// client.
type Submitter interface {
	CreateMessage(ctx context.Context, req api.CreateMessageRequest) (*api.Message, error)
}

// Sender drains the durable outbox and posts entries via the API. Entries
// are queued while offline and picked up here once connectivity returns.
type Sender struct {
	db       *store.DB
	sub      Submitter
	bus      *bus.Bus
	senderID int64
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// NewSender creates a new outbox sender.
func NewSender(db *store.DB, sub Submitter, b *bus.Bus, senderID int64, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		db:       db,
		sub:      sub,
		bus:      b,
		senderID: senderID,
		logger:   logger,
	}
}

// Start begins polling the outbox for queued entries.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		s.sendEntry(ctx, entry)
	}
}

func (s *Sender) sendEntry(ctx context.Context, entry store.OutboxEntry) {
	if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
		s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		return
	}

	req := api.CreateMessageRequest{
		Scope:    scopeOf(entry),
		SenderID: s.senderID,
		Text:     entry.Body,
	}
	uploads, err := readAttachments(entry.Attachments)
	if err != nil {
		// An unreadable attachment cannot resolve itself; fail the entry
		// instead of retrying forever.
		s.fail(entry, err)
		return
	}
	req.Uploads = uploads

	msg, err := s.sub.CreateMessage(ctx, req)
	if err != nil {
		s.fail(entry, err)
		return
	}

	if err := s.db.MarkOutboxSent(entry.ClientMsgID, msg.ID); err != nil {
		s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
	}

	s.logger.Info("outbox entry sent",
		zap.String("client_msg_id", entry.ClientMsgID),
		zap.Int64("server_msg_id", msg.ID))
	s.bus.Publish(bus.Event{
		Kind:      "message.send_ack",
		Timestamp: time.Now(),
		Payload: map[string]string{
			"client_msg_id": entry.ClientMsgID,
		},
	})
}

func (s *Sender) fail(entry store.OutboxEntry, err error) {
	s.logger.Error("failed to send outbox entry", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
	_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
	s.bus.Publish(bus.Event{
		Kind:      "message.send_failed",
		Timestamp: time.Now(),
		Payload: map[string]string{
			"client_msg_id": entry.ClientMsgID,
			"error":         err.Error(),
		},
	})
}

func scopeOf(entry store.OutboxEntry) api.Scope {
	if entry.ScopeKind == "modification" {
		return api.ModificationScope(entry.ScopeID)
	}
	return api.MockupScope(entry.ScopeID)
}

func readAttachments(paths []string) ([]api.Upload, error) {
	var uploads []api.Upload
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, api.Upload{
			Name: filepath.Base(p),
			Data: data,
		})
	}
	return uploads, nil
}
