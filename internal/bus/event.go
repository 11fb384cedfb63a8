package bus

import "time"

// Event is a domain event published on the bus. Kind is a dot-separated
// name ("composer.sent", "message.upserted", "conn.state_changed") matched
// against subscriber namespaces by prefix.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
