package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Error is a non-2xx response from the backend, carrying the server-provided
// detail message when one was present in the body.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s (HTTP %d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

// Client talks to the backend REST API. All methods are safe for concurrent
// use.
type Client struct {
	base   *url.URL
	token  string
	httpc  *http.Client
	logger *zap.Logger
}

// New creates a client for the given API base URL. The token, if non-empty,
// is sent as an Authorization header on every request.
func New(baseURL, token string, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   u,
		token:  token,
		httpc:  &http.Client{},
		logger: logger,
	}, nil
}

// SocketURL derives the websocket endpoint for a chat scope by swapping the
// base URL's scheme to ws/wss.
func (c *Client) SocketURL(scope Scope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/ws/chat/%s/%d/", scope.Kind(), scope.ID())
	u.RawQuery = ""
	return u.String(), nil
}

// ListMessages fetches one page of messages for a scope, newest-first.
// Pass an empty cursor for the newest page; pass page.Next afterwards.
func (c *Client) ListMessages(ctx context.Context, scope Scope, cursor string) (*MessagePage, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	rawURL := cursor
	if rawURL == "" {
		q := url.Values{}
		if scope.ModificationID != 0 {
			q.Set("mockup_modification", strconv.FormatInt(scope.ModificationID, 10))
		} else {
			q.Set("mockup", strconv.FormatInt(scope.MockupID, 10))
		}
		q.Set("ordering", "-date")
		rawURL = c.endpoint("/api/messages/", q)
	}

	var page MessagePage
	if err := c.getJSON(ctx, rawURL, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateMessage posts a message as multipart form data. The backend echoes
// the created message back, server id assigned.
func (c *Client) CreateMessage(ctx context.Context, req CreateMessageRequest) (*Message, error) {
	if err := req.Scope.Validate(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("message", req.Text); err != nil {
		return nil, fmt.Errorf("write message field: %w", err)
	}
	if err := mw.WriteField("sender", strconv.FormatInt(req.SenderID, 10)); err != nil {
		return nil, fmt.Errorf("write sender field: %w", err)
	}
	field := "mockup"
	if req.Scope.ModificationID != 0 {
		field = "mockup_modification"
	}
	if err := mw.WriteField(field, strconv.FormatInt(req.Scope.ID(), 10)); err != nil {
		return nil, fmt.Errorf("write scope field: %w", err)
	}
	for _, up := range req.Uploads {
		fw, err := mw.CreateFormFile("images", up.Name)
		if err != nil {
			return nil, fmt.Errorf("create file part: %w", err)
		}
		if _, err := fw.Write(up.Data); err != nil {
			return nil, fmt.Errorf("write file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/messages/", nil), &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(httpReq)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.responseError(resp)
	}

	var msg Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode created message: %w", err)
	}
	return &msg, nil
}

// ListModifications returns the full revision chain of a mockup,
// newest-first by requested date. Follows pagination to exhaustion.
func (c *Client) ListModifications(ctx context.Context, mockupID int64) ([]Modification, error) {
	q := url.Values{}
	q.Set("mockup", strconv.FormatInt(mockupID, 10))
	q.Set("ordering", "-requested_date")
	next := c.endpoint("/api/modifications/", q)

	var mods []Modification
	for next != "" {
		var page ModificationPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		mods = append(mods, page.Results...)
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return mods, nil
}

// GetMockup fetches a single mockup by id.
func (c *Client) GetMockup(ctx context.Context, id int64) (*Mockup, error) {
	var m Mockup
	path := fmt.Sprintf("/api/mockups/%d/", id)
	if err := c.getJSON(ctx, c.endpoint(path, nil), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMockups fetches one page of mockups, newest-first. Empty cursor means
// the first page.
func (c *Client) ListMockups(ctx context.Context, cursor string) (*MockupPage, error) {
	rawURL := cursor
	if rawURL == "" {
		q := url.Values{}
		q.Set("ordering", "-requested_date")
		rawURL = c.endpoint("/api/mockups/", q)
	}
	var page MockupPage
	if err := c.getJSON(ctx, rawURL, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError drains the body looking for a server-provided detail message.
func (c *Client) responseError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
