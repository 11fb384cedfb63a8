package composer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one message submission.
const DefaultTimeout = 30 * time.Second

// ErrTimedOut marks a submission that exceeded the deadline, distinct from
// server and network failures so the UI can word it differently.
var ErrTimedOut = errors.New("request timed out")

// Attachment is one staged image. Its release func frees whatever local
// resource backs the preview (a temp file, a decoded buffer) and runs at
// most once.
type Attachment struct {
	Name string
	Data []byte

	mu      sync.Mutex
	release func()
}

// NewAttachment stages in-memory data with an optional release func.
func NewAttachment(name string, data []byte, release func()) *Attachment {
	return &Attachment{Name: name, Data: data, release: release}
}

// NewFileAttachment stages the contents of a local file.
func NewFileAttachment(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return &Attachment{Name: filepath.Base(path), Data: data}, nil
}

// Release frees the attachment's backing resource exactly once.
func (a *Attachment) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.release != nil {
		a.release()
		a.release = nil
	}
	a.Data = nil
}

// Draft is the composer's local state: text plus staged attachments. It is
// cleared only on successful submission, so a failed send never loses what
// the user typed.
type Draft struct {
	mu          sync.Mutex
	text        string
	attachments []*Attachment
}

// SetText replaces the draft text.
func (d *Draft) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}

// Text returns the current draft text.
func (d *Draft) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Attach stages an attachment.
func (d *Draft) Attach(a *Attachment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attachments = append(d.attachments, a)
}

// Attachments returns the staged attachments in order.
func (d *Draft) Attachments() []*Attachment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Attachment, len(d.attachments))
	copy(out, d.attachments)
	return out
}

// Empty reports whether the draft has neither trimmed text nor attachments.
func (d *Draft) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.text) == "" && len(d.attachments) == 0
}

// Clear resets the draft, releasing every staged attachment.
func (d *Draft) Clear() {
	d.mu.Lock()
	attachments := d.attachments
	d.text = ""
	d.attachments = nil
	d.mu.Unlock()

	for _, a := range attachments {
		a.Release()
	}
}

// Submitter is the write side of the messages API.
type Submitter interface {
	CreateMessage(ctx context.Context, req api.CreateMessageRequest) (*api.Message, error)
}

// SentEvent is the payload of composer.sent bus events, the decoupled
// refresh hint for views that do not hold the created message.
type SentEvent struct {
	Scope     api.Scope
	MessageID int64
}

// Composer packages drafts into multipart submissions. On success it clears
// the draft and broadcasts composer.sent; on failure the draft is kept and
// the most specific error is returned.
type Composer struct {
	submitter Submitter
	bus       *bus.Bus
	senderID  int64
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a composer sending as the given user id.
func New(submitter Submitter, b *bus.Bus, senderID int64, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		submitter: submitter,
		bus:       b,
		senderID:  senderID,
		timeout:   DefaultTimeout,
		logger:    logger,
	}
}

// SetTimeout overrides the submission deadline. Used by tests.
func (c *Composer) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Submit sends the draft to the given thread scope. An empty draft or an
// unresolved sender identity is a silent no-op: the send action is simply
// disabled, not an error.
func (c *Composer) Submit(ctx context.Context, scope api.Scope, draft *Draft) (*api.Message, error) {
	if draft.Empty() || c.senderID == 0 {
		return nil, nil
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	attachments := draft.Attachments()
	uploads := make([]api.Upload, 0, len(attachments))
	for _, a := range attachments {
		uploads = append(uploads, api.Upload{Name: a.Name, Data: a.Data})
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.submitter.CreateMessage(ctx, api.CreateMessageRequest{
		Scope:    scope,
		SenderID: c.senderID,
		Text:     strings.TrimSpace(draft.Text()),
		Uploads:  uploads,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimedOut, c.timeout)
		}
		return nil, err
	}

	draft.Clear()
	c.logger.Info("message submitted",
		zap.Stringer("scope", scope),
		zap.Int64("message_id", msg.ID))
	c.bus.Publish(bus.Event{
		Kind:      "composer.sent",
		Timestamp: time.Now(),
		Payload:   SentEvent{Scope: scope, MessageID: msg.ID},
	})
	return msg, nil
}
