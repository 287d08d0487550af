package audit

import (
	"context"
	"time"
)

// Event names
const (
	EventGenericCreate = "generic.create"
	EventGenericUpdate = "generic.update"
	EventGenericDelete = "generic.delete"
	EventListingView   = "listing.view"
	EventImageUpload   = "image.upload"
)

// Event is one user action
type Event struct {
	UserID    string                 `json:"user_id"`
	Event     string                 `json:"event"`
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	At        time.Time              `json:"created_at"`
}

// New creates an event stamped with the current time
func New(userID, event, ip string, details map[string]interface{}) Event {
	return Event{
		UserID:    userID,
		Event:     event,
		Details:   details,
		IPAddress: ip,
		At:        time.Now().UTC(),
	}
}

// Sink persists events
type Sink interface {
	Write(ctx context.Context, e Event) error
}

type ipKey struct{}

// WithClientIP returns a context carrying the caller's address for events
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or ""
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}
