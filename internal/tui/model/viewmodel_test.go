package model

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/composer"
	"github.com/pvictorino/leadline/internal/ingest"
	"github.com/pvictorino/leadline/internal/status"
	"github.com/pvictorino/leadline/internal/store"
	"github.com/pvictorino/leadline/internal/ws"
)

type vmFixture struct {
	vm  *ViewModel
	db  *store.DB
	bus *bus.Bus
}

func newVMFixture(t *testing.T, baseURL string) *vmFixture {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c, err := api.New(baseURL, "tok", nil)
	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	b := bus.New()
	comp := composer.New(c, b, 1, nil)
	sock := ws.NewClient(status.NewMachine(b), nil)

	return &vmFixture{
		vm:  NewViewModel(c, comp, sock, db, b, t.TempDir(), nil),
		db:  db,
		bus: b,
	}
}

func messagePage(scopeField string, scopeID int64, ids ...int64) string {
	results := ""
	for i, id := range ids {
		if i > 0 {
			results += ","
		}
		results += fmt.Sprintf(
			`{"id":%d,"message":"msg %d","sender":2,"%s":%d,"images":[],"date":"2026-05-01T12:%02d:00Z"}`,
			id, id, scopeField, scopeID, id)
	}
	return fmt.Sprintf(`{"results":[%s],"next":null}`, results)
}

func TestOpenThreadMirrorsHistoryIntoCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages/" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, messagePage("mockup", 7, 12, 11))
	}))
	defer srv.Close()

	f := newVMFixture(t, srv.URL)

	engine := ingest.NewEngine(f.db, f.bus, nil)
	engine.Start(context.Background())
	defer engine.Stop()

	if err := f.vm.OpenThread(context.Background(), api.MockupScope(7)); err != nil {
		t.Fatalf("OpenThread() error = %v", err)
	}
	defer f.vm.CloseThread()

	deadline := time.After(2 * time.Second)
	for {
		cached, err := f.db.ListMessages("mockup", 7, 0, 10)
		if err != nil {
			t.Fatalf("list cached: %v", err)
		}
		if len(cached) == 2 {
			if cached[0].ServerID != 12 || cached[1].ServerID != 11 {
				t.Fatalf("cached server ids = %d,%d, want 12,11",
					cached[0].ServerID, cached[1].ServerID)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("history page not mirrored into cache, got %d rows", len(cached))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestOpenThreadServesCachedThreadWhenFetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = fmt.Fprint(w, `{"detail":"upstream down"}`)
	}))
	defer srv.Close()

	f := newVMFixture(t, srv.URL)

	for i, ts := range []int64{1000, 2000} {
		rowID, err := f.db.UpsertMessage(&store.Message{
			ScopeKind: "mockup", ScopeID: 7,
			ServerID: int64(i + 1), SenderID: 2,
			Body: fmt.Sprintf("cached %d", i+1), SentAt: ts,
		})
		if err != nil {
			t.Fatalf("seed cache: %v", err)
		}
		if i == 0 {
			err := f.db.UpsertImage(&store.Image{MessageID: rowID, ServerID: 9, URL: "http://x/a.png"})
			if err != nil {
				t.Fatalf("seed image: %v", err)
			}
		}
	}

	if err := f.vm.OpenThread(context.Background(), api.MockupScope(7)); err != nil {
		t.Fatalf("OpenThread() with warm cache error = %v, want offline fallback", err)
	}
	defer f.vm.CloseThread()

	groups := f.vm.Groups()
	if len(groups) != 1 || len(groups[0].Messages) != 2 {
		t.Fatalf("got %d groups, want 1 group with 2 cached messages", len(groups))
	}
	msgs := groups[0].Messages
	if msgs[0].ID != 1 || msgs[1].ID != 2 {
		t.Errorf("cached thread order = %d,%d, want oldest first 1,2", msgs[0].ID, msgs[1].ID)
	}
	if len(msgs[0].Images) != 1 || msgs[0].Images[0].URL != "http://x/a.png" {
		t.Errorf("cached images not restored: %+v", msgs[0].Images)
	}
}

func TestOpenThreadColdCacheStillFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = fmt.Fprint(w, `{"detail":"upstream down"}`)
	}))
	defer srv.Close()

	f := newVMFixture(t, srv.URL)
	if err := f.vm.OpenThread(context.Background(), api.MockupScope(7)); err == nil {
		t.Fatal("OpenThread() error = nil with empty cache and failing fetch")
	}
}
