package ports

import (
	"context"
	"time"
)

// Named slots.
const (
	// SlotFlow holds the last saved FlowData as JSON.
	SlotFlow = "cardflow:flow"
	// SlotProfile holds the standalone assistant profile as JSON.
	SlotProfile = "cardflow:profile"
)

// SlotStore persists opaque values under string keys.
type SlotStore interface {
	// Get returns the value of a slot.
	// Returns domain.ErrSlotNotFound if the slot holds no value.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value of a slot.
	Put(ctx context.Context, key string, value []byte) error

	// Delete clears a slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their slots.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for stores that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that is signaled when the stored flow changes.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// ArchivedScript is a generated script kept for later reference.
type ArchivedScript struct {
	Name        string    `json:"name"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generatedAt"`
	Cards       int       `json:"cards"`
	Connections int       `json:"connections"`
}

// ScriptArchive stores generated scripts.
type ScriptArchive interface {
	Archive(ctx context.Context, script ArchivedScript) error
	Scripts(ctx context.Context) ([]ArchivedScript, error)
}
