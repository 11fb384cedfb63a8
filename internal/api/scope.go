package api

import (
	"errors"
	"fmt"
)

// Scope identifies a single chat thread: the messages of either one mockup
// or one modification. Exactly one of the two ids must be set.
type Scope struct {
	MockupID       int64
	ModificationID int64
}

// MockupScope returns a scope for a mockup thread.
func MockupScope(id int64) Scope {
	return Scope{MockupID: id}
}

// ModificationScope returns a scope for a modification thread.
func ModificationScope(id int64) Scope {
	return Scope{ModificationID: id}
}

// ErrInvalidScope is returned when a scope does not name exactly one thread.
var ErrInvalidScope = errors.New("scope must reference exactly one of mockup or modification")

// Validate checks that exactly one id is set.
func (s Scope) Validate() error {
	if (s.MockupID == 0) == (s.ModificationID == 0) {
		return ErrInvalidScope
	}
	return nil
}

// Kind returns "mockup" or "modification".
func (s Scope) Kind() string {
	if s.ModificationID != 0 {
		return "modification"
	}
	return "mockup"
}

// ID returns the id of whichever side is set.
func (s Scope) ID() int64 {
	if s.ModificationID != 0 {
		return s.ModificationID
	}
	return s.MockupID
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%d", s.Kind(), s.ID())
}
