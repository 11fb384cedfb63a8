package api

import "time"

// RequestStatus is the backend's lifecycle status for a mockup or a
// modification request.
type RequestStatus string

const (
	StatusSent      RequestStatus = "SENT"
	StatusStarted   RequestStatus = "STARTED"
	StatusReturned  RequestStatus = "RETURNED"
	StatusConverted RequestStatus = "CONVERTED"
)

// Image is an uploaded image attached to a message, mockup or modification.
type Image struct {
	ID        int64     `json:"id"`
	URL       string    `json:"image"`
	CreatedAt time.Time `json:"date"`
}

// Message is a chat message in a mockup or modification thread.
// Exactly one of MockupID / ModificationID is set.
type Message struct {
	ID             int64     `json:"id"`
	Text           string    `json:"message"`
	SenderID       int64     `json:"sender"`
	MockupID       *int64    `json:"mockup"`
	ModificationID *int64    `json:"mockup_modification"`
	Images         []Image   `json:"images"`
	CreatedAt      time.Time `json:"date"`
}

// BOMLine is one bill-of-materials line on a modification request.
type BOMLine struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Modification is one iteration in the revision chain off a mockup.
// ParentID links to the previous modification, nil for the first one.
type Modification struct {
	ID            int64         `json:"id"`
	ParentID      *int64        `json:"parent_modification"`
	MockupID      int64         `json:"mockup"`
	RequestStatus RequestStatus `json:"request_status"`
	IsEdit        bool          `json:"is_edit"`
	PriceCents    *int64        `json:"price"`
	Images        []Image       `json:"images"`
	BOMLines      []BOMLine     `json:"bom_lines"`
	RequestedAt   time.Time     `json:"requested_date"`
	RespondedAt   *time.Time    `json:"responded_date"`
	StartedAt     *time.Time    `json:"started_date"`
}

// Mockup is the root design deliverable for a sales lead line item.
type Mockup struct {
	ID              int64         `json:"id"`
	LeadName        string        `json:"lead_name"`
	RequestStatus   RequestStatus `json:"request_status"`
	PriceCents      *int64        `json:"price"`
	Images          []Image       `json:"images"`
	RequestedAt     time.Time     `json:"requested_date"`
	FirstResponseAt *time.Time    `json:"first_response_date"`
}

// MessagePage is one page of a cursor-paginated message listing.
// Next is the absolute URL of the older page, nil when exhausted.
type MessagePage struct {
	Results []Message `json:"results"`
	Next    *string   `json:"next"`
}

// MockupPage is one page of a cursor-paginated mockup listing.
type MockupPage struct {
	Results []Mockup `json:"results"`
	Next    *string  `json:"next"`
}

// ModificationPage is one page of a modification listing, newest-first by
// requested date.
type ModificationPage struct {
	Results []Modification `json:"results"`
	Next    *string        `json:"next"`
}

// Upload is an attachment file to include in a multipart message submission.
type Upload struct {
	Name string
	Data []byte
}

// CreateMessageRequest is the multipart payload for posting a message.
type CreateMessageRequest struct {
	Scope    Scope
	SenderID int64
	Text     string
	Uploads  []Upload
}
