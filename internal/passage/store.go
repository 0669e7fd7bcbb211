package passage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested passage or attempt does not exist.
var ErrNotFound = errors.New("passage not found")

// ErrDuplicateID is returned by AddPassage when a passage with the same ID
// already exists.
var ErrDuplicateID = errors.New("passage with that ID already exists")

// Store manages passages and their attempts.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// AddPassage creates a new passage. Returns the passage with a generated
	// ID if the provided passage's ID is empty.
	// Returns [ErrDuplicateID] if a passage with the same non-empty ID exists.
	AddPassage(ctx context.Context, p Passage) (Passage, error)

	// GetPassage retrieves a passage by ID.
	// Returns [ErrNotFound] when no passage with that ID exists.
	GetPassage(ctx context.Context, id string) (Passage, error)

	// ListPassages returns all passages, optionally filtered by kind.
	// Results are ordered by title.
	ListPassages(ctx context.Context, opts ListOptions) ([]Passage, error)

	// UpdatePassage replaces an existing passage and returns the stored
	// version with its original CreatedAt and a fresh UpdatedAt.
	// Returns [ErrNotFound] when no passage with that ID exists.
	UpdatePassage(ctx context.Context, p Passage) (Passage, error)

	// RemovePassage deletes a passage and its attempts by ID.
	// Returns [ErrNotFound] when no passage with that ID exists.
	RemovePassage(ctx context.Context, id string) error

	// AddAttempt records a scored attempt. The attempt's ID is generated when
	// empty. The referenced passage must exist.
	AddAttempt(ctx context.Context, a Attempt) (Attempt, error)

	// ListAttempts returns a user's attempts at a passage, newest first.
	// An empty userID returns all attempts at the passage.
	ListAttempts(ctx context.Context, passageID, userID string) ([]Attempt, error)

	// CountAttempts returns how many attempts a user has made at a passage.
	CountAttempts(ctx context.Context, passageID, userID string) (int, error)

	// Leaderboard returns each user's best attempt at a passage, ordered by
	// accuracy descending and time ascending, capped at limit entries.
	Leaderboard(ctx context.Context, passageID string, limit int) ([]LeaderboardEntry, error)

	// UserStats aggregates a user's attempts across all passages.
	// A user with no attempts yields zero-valued stats, not an error.
	UserStats(ctx context.Context, userID string) (UserStats, error)
}

// ListOptions narrows the result set of [Store.ListPassages].
type ListOptions struct {
	// Kind restricts results to passages of this kind.
	// An empty value matches all kinds.
	Kind Kind
}
