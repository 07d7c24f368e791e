package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Op identifies a container storage transition.
type Op string

const (
	// OpEmplace is a payload constructed into a container.
	OpEmplace Op = "emplace"
	// OpCopy is an independent model built from another container.
	OpCopy Op = "copy"
	// OpMove is a model transferred between containers.
	OpMove Op = "move"
	// OpSwap is two containers exchanging models.
	OpSwap Op = "swap"
	// OpReset is a container dropping its contents.
	OpReset Op = "reset"
)

// Event describes one storage transition observed on an erased container.
// Payload and Chain are display names so hooks stay decoupled from the
// container's type machinery.
type Event struct {
	ID         string
	Op         Op
	Source     string
	Chain      string
	Payload    string
	Storage    string
	Bytes      int
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized container events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when required fields are
// missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Op == "" || normalized.Chain == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures both a
// timestamp and a sortable event ID are present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Source = strings.TrimSpace(event.Source)
	normalized.Chain = strings.TrimSpace(event.Chain)
	normalized.Payload = strings.TrimSpace(event.Payload)
	normalized.Storage = strings.TrimSpace(event.Storage)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.ID == "" {
		normalized.ID = newEventID()
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

// newEventID prefers time-ordered v7 IDs so event streams sort naturally,
// falling back to v4 if the clock source misbehaves.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

func cloneMap(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
