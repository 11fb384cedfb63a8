package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, "tok123", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestNewRejectsBadScheme(t *testing.T) {
	if _, err := New("ftp://example.com", "", nil); err == nil {
		t.Fatal("expected scheme error")
	}
	if _, err := New("://bad", "", nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		base  string
		scope Scope
		want  string
	}{
		{"https://ops.example.com", MockupScope(7), "wss://ops.example.com/ws/chat/mockup/7/"},
		{"http://localhost:8000", ModificationScope(12), "ws://localhost:8000/ws/chat/modification/12/"},
	}
	for _, tt := range tests {
		c, err := New(tt.base, "", nil)
		if err != nil {
			t.Fatalf("New(%s): %v", tt.base, err)
		}
		got, err := c.SocketURL(tt.scope)
		if err != nil {
			t.Fatalf("SocketURL: %v", err)
		}
		if got != tt.want {
			t.Errorf("SocketURL(%s) = %q, want %q", tt.scope, got, tt.want)
		}
	}
}

func TestSocketURLRejectsInvalidScope(t *testing.T) {
	c, _ := New("https://ops.example.com", "", nil)
	if _, err := c.SocketURL(Scope{}); err == nil {
		t.Fatal("expected scope validation error")
	}
}

func TestListMessagesBuildsQuery(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(MessagePage{})
	})

	if _, err := c.ListMessages(context.Background(), MockupScope(7), ""); err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if gotPath != "/api/messages/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "mockup=7&ordering=-date" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "Token tok123" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestListMessagesModificationScope(t *testing.T) {
	var gotQuery string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(MessagePage{})
	})

	if _, err := c.ListMessages(context.Background(), ModificationScope(12), ""); err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if gotQuery != "mockup_modification=12&ordering=-date" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestListMessagesFollowsCursorVerbatim(t *testing.T) {
	var gotURI string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		_ = json.NewEncoder(w).Encode(MessagePage{})
	})

	cursor := c.endpoint("/api/messages/", nil) + "?cursor=abc123&mockup=7"
	if _, err := c.ListMessages(context.Background(), MockupScope(7), cursor); err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if gotURI != "/api/messages/?cursor=abc123&mockup=7" {
		t.Errorf("request uri = %q", gotURI)
	}
}

func TestCreateMessageMultipart(t *testing.T) {
	var fields map[string]string
	var fileNames []string
	var fileData []string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		fields = make(map[string]string)
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		for _, fh := range r.MultipartForm.File["images"] {
			fileNames = append(fileNames, fh.Filename)
			f, _ := fh.Open()
			data, _ := io.ReadAll(f)
			_ = f.Close()
			fileData = append(fileData, string(data))
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Message{ID: 42, Text: fields["message"]})
	})

	msg, err := c.CreateMessage(context.Background(), CreateMessageRequest{
		Scope:    ModificationScope(12),
		SenderID: 9,
		Text:     "please widen the base",
		Uploads: []Upload{
			{Name: "sketch.png", Data: []byte("png-bytes")},
		},
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.ID != 42 {
		t.Errorf("message id = %d", msg.ID)
	}
	if fields["message"] != "please widen the base" {
		t.Errorf("message field = %q", fields["message"])
	}
	if fields["sender"] != "9" {
		t.Errorf("sender field = %q", fields["sender"])
	}
	if fields["mockup_modification"] != "12" {
		t.Errorf("mockup_modification field = %q", fields["mockup_modification"])
	}
	if _, ok := fields["mockup"]; ok {
		t.Error("mockup field must be absent on a modification thread")
	}
	if len(fileNames) != 1 || fileNames[0] != "sketch.png" || fileData[0] != "png-bytes" {
		t.Errorf("files = %v %v", fileNames, fileData)
	}
}

func TestResponseErrorCarriesDetail(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = fmt.Fprint(w, `{"detail": "bill of materials locked"}`)
	})

	_, err := c.ListMessages(context.Background(), MockupScope(7), "")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "bill of materials locked" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestResponseErrorWithoutDetail(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = fmt.Fprint(w, "<html>bad gateway</html>")
	})

	_, err := c.ListMessages(context.Background(), MockupScope(7), "")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T", err)
	}
	if apiErr.Detail != "" {
		t.Errorf("detail = %q, want empty", apiErr.Detail)
	}
}

func TestListModificationsFollowsPages(t *testing.T) {
	var calls int
	var srvURL string
	c, srv := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			if q := r.URL.Query().Get("ordering"); q != "-requested_date" {
				t.Errorf("ordering = %q", q)
			}
			next := srvURL + "/api/modifications/?cursor=p2&mockup=7"
			_ = json.NewEncoder(w).Encode(ModificationPage{
				Results: []Modification{{ID: 3}, {ID: 2}},
				Next:    &next,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(ModificationPage{
			Results: []Modification{{ID: 1}},
		})
	})
	srvURL = srv.URL

	mods, err := c.ListModifications(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListModifications: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(mods) != 3 || mods[0].ID != 3 || mods[2].ID != 1 {
		t.Errorf("mods = %+v", mods)
	}
}

func TestGetMockup(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mockups/7/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Mockup{ID: 7, LeadName: "Acme kiosk", RequestStatus: StatusReturned})
	})

	m, err := c.GetMockup(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetMockup: %v", err)
	}
	if m.LeadName != "Acme kiosk" || m.RequestStatus != StatusReturned {
		t.Errorf("mockup = %+v", m)
	}
}
