package store

// Message is a cached chat message. ServerID is the backend-assigned id,
// unique within its thread scope.
type Message struct {
	ID        int64
	ScopeKind string // "mockup" | "modification"
	ScopeID   int64
	ServerID  int64
	SenderID  int64
	Body      string
	SentAt    int64 // unix ms
}

// Image is a cached attachment reference owned by one message.
type Image struct {
	ID        int64
	MessageID int64
	ServerID  int64
	URL       string
}

// OutboxEntry is a pending outgoing message draft.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	ScopeKind    string
	ScopeID      int64
	Body         string
	Status       string // queued, sending, sent, failed
	ErrorMessage string
	ServerMsgID  int64
	Attachments  []string // local file paths staged for upload
}
