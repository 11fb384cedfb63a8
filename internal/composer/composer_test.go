package composer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
)

// fakeSubmitter records requests and returns configurable results.
type fakeSubmitter struct {
	calls []api.CreateMessageRequest
	err   error
	delay time.Duration
	next  int64
}

func (f *fakeSubmitter) CreateMessage(ctx context.Context, req api.CreateMessageRequest) (*api.Message, error) {
	f.calls = append(f.calls, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	return &api.Message{ID: f.next, Text: req.Text, SenderID: req.SenderID}, nil
}

func TestSubmitEmptyDraftIsNoop(t *testing.T) {
	fake := &fakeSubmitter{}
	c := New(fake, bus.New(), 7, nil)

	draft := &Draft{}
	draft.SetText("   ") // whitespace only
	msg, err := c.Submit(context.Background(), api.MockupScope(1), draft)
	if msg != nil || err != nil {
		t.Errorf("empty submit = (%v, %v), want (nil, nil)", msg, err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("submitter called %d times for empty draft, want 0", len(fake.calls))
	}
}

func TestSubmitWithoutSenderIsNoop(t *testing.T) {
	fake := &fakeSubmitter{}
	c := New(fake, bus.New(), 0, nil)

	draft := &Draft{}
	draft.SetText("hello")
	msg, err := c.Submit(context.Background(), api.MockupScope(1), draft)
	if msg != nil || err != nil || len(fake.calls) != 0 {
		t.Error("submit without a resolved sender must be a silent no-op")
	}
}

func TestSubmitClearsDraftAndReleasesAttachments(t *testing.T) {
	fake := &fakeSubmitter{}
	b := bus.New()
	ch, unsub := b.Subscribe("composer.", 10)
	defer unsub()

	c := New(fake, b, 7, nil)

	released := 0
	draft := &Draft{}
	draft.SetText("take a look")
	draft.Attach(NewAttachment("sketch.png", []byte("png-bytes"), func() { released++ }))

	msg, err := c.Submit(context.Background(), api.ModificationScope(9), draft)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil {
		t.Fatal("no message returned")
	}

	if draft.Text() != "" {
		t.Errorf("draft text = %q, want empty after success", draft.Text())
	}
	if len(draft.Attachments()) != 0 {
		t.Errorf("draft has %d attachments, want 0 after success", len(draft.Attachments()))
	}
	if released != 1 {
		t.Errorf("attachment released %d times, want exactly 1", released)
	}

	// Release is idempotent even if the view clears again.
	draft.Clear()
	if released != 1 {
		t.Errorf("release ran %d times after second Clear, want 1", released)
	}

	// The decoupled refresh broadcast fired.
	select {
	case evt := <-ch:
		sent, ok := evt.Payload.(SentEvent)
		if !ok {
			t.Fatalf("payload type = %T, want SentEvent", evt.Payload)
		}
		if sent.Scope.ModificationID != 9 {
			t.Errorf("broadcast scope = %+v, want modification 9", sent.Scope)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for composer.sent")
	}

	// The multipart request bound the modification side, never both.
	req := fake.calls[0]
	if req.Scope.MockupID != 0 || req.Scope.ModificationID != 9 {
		t.Errorf("request scope = %+v", req.Scope)
	}
	if len(req.Uploads) != 1 || req.Uploads[0].Name != "sketch.png" {
		t.Errorf("uploads = %+v", req.Uploads)
	}
}

func TestSubmitKeepsDraftOnFailure(t *testing.T) {
	fake := &fakeSubmitter{err: &api.Error{StatusCode: 500, Detail: "bill of materials locked"}}
	c := New(fake, bus.New(), 7, nil)

	released := 0
	draft := &Draft{}
	draft.SetText("please revise")
	draft.Attach(NewAttachment("a.png", nil, func() { released++ }))

	_, err := c.Submit(context.Background(), api.MockupScope(1), draft)
	if err == nil {
		t.Fatal("expected error")
	}
	// The server-provided detail survives to the surface.
	if !strings.Contains(err.Error(), "bill of materials locked") {
		t.Errorf("error = %q, want server detail preserved", err)
	}
	if draft.Text() != "please revise" || len(draft.Attachments()) != 1 {
		t.Error("draft was cleared on failure; user input lost")
	}
	if released != 0 {
		t.Errorf("attachment released %d times on failure, want 0", released)
	}
}

func TestSubmitTimeoutIsDistinct(t *testing.T) {
	fake := &fakeSubmitter{delay: 200 * time.Millisecond}
	c := New(fake, bus.New(), 7, nil)
	c.SetTimeout(50 * time.Millisecond)

	draft := &Draft{}
	draft.SetText("slow network")

	_, err := c.Submit(context.Background(), api.MockupScope(1), draft)
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("error = %v, want ErrTimedOut", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error text = %q, want it to mention the timeout", err)
	}
	if draft.Text() != "slow network" {
		t.Error("draft was cleared on timeout")
	}
}

func TestSubmitAttachmentOnlyDraft(t *testing.T) {
	fake := &fakeSubmitter{}
	c := New(fake, bus.New(), 7, nil)

	draft := &Draft{}
	draft.Attach(NewAttachment("only.png", []byte("x"), nil))

	msg, err := c.Submit(context.Background(), api.MockupScope(1), draft)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil {
		t.Fatal("attachment-only draft must submit")
	}
	if fake.calls[0].Text != "" {
		t.Errorf("text = %q, want empty", fake.calls[0].Text)
	}
}
