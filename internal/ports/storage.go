// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// PatternStore persists named pattern sets to durable storage.
// The backing store (bbolt) keeps one record per set. Concurrent reads are
// safe; writes are serialized by the adapter.
//
// Crash safety: SaveSet and DeleteSet must be transactional. A crash
// mid-write must not corrupt previously committed sets.
type PatternStore interface {
	// SaveSet persists the full pattern list for a set, replacing any prior
	// content. The order of patterns is not preserved.
	SaveSet(name string, patterns []Pattern) error

	// LoadSet retrieves a pattern set.
	// Returns nil, nil if no set with that name exists.
	LoadSet(name string) ([]Pattern, error)

	// DeleteSet removes a set.
	// Idempotent: deleting a nonexistent set is not an error.
	DeleteSet(name string) error

	// ListSets returns the names of all stored sets in sorted order.
	ListSets() ([]string, error)
}
