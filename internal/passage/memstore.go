package passage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It backs the server when no database is configured and is used in tests.
// The zero value is ready to use.
type MemStore struct {
	mu       sync.RWMutex
	passages map[string]Passage
	attempts []Attempt
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		passages: make(map[string]Passage),
	}
}

// AddPassage implements [Store.AddPassage].
func (s *MemStore) AddPassage(ctx context.Context, p Passage) (Passage, error) {
	if p.ID == "" {
		id, err := generateID()
		if err != nil {
			return Passage{}, fmt.Errorf("passage: generate id: %w", err)
		}
		p.ID = id
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.passages == nil {
		s.passages = make(map[string]Passage)
	}

	if _, exists := s.passages[p.ID]; exists {
		return Passage{}, ErrDuplicateID
	}

	s.passages[p.ID] = p
	return p, nil
}

// GetPassage implements [Store.GetPassage].
func (s *MemStore) GetPassage(ctx context.Context, id string) (Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.passages[id]
	if !ok {
		return Passage{}, ErrNotFound
	}
	return p, nil
}

// ListPassages implements [Store.ListPassages].
func (s *MemStore) ListPassages(ctx context.Context, opts ListOptions) ([]Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Passage, 0, len(s.passages))
	for _, p := range s.passages {
		if opts.Kind != "" && p.Kind != opts.Kind {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

// UpdatePassage implements [Store.UpdatePassage].
func (s *MemStore) UpdatePassage(ctx context.Context, p Passage) (Passage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.passages[p.ID]
	if !ok {
		return Passage{}, ErrNotFound
	}

	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.passages[p.ID] = p
	return p, nil
}

// RemovePassage implements [Store.RemovePassage].
func (s *MemStore) RemovePassage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.passages[id]; !ok {
		return ErrNotFound
	}

	delete(s.passages, id)
	kept := s.attempts[:0]
	for _, a := range s.attempts {
		if a.PassageID != id {
			kept = append(kept, a)
		}
	}
	s.attempts = kept
	return nil
}

// AddAttempt implements [Store.AddAttempt].
func (s *MemStore) AddAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	if a.ID == "" {
		id, err := generateID()
		if err != nil {
			return Attempt{}, fmt.Errorf("passage: generate id: %w", err)
		}
		a.ID = id
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.passages[a.PassageID]; !ok {
		return Attempt{}, ErrNotFound
	}

	s.attempts = append(s.attempts, a)
	return a, nil
}

// ListAttempts implements [Store.ListAttempts].
func (s *MemStore) ListAttempts(ctx context.Context, passageID, userID string) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Attempt{}
	for _, a := range s.attempts {
		if a.PassageID != passageID {
			continue
		}
		if userID != "" && a.UserID != userID {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.After(result[j].SubmittedAt) })
	return result, nil
}

// CountAttempts implements [Store.CountAttempts].
func (s *MemStore) CountAttempts(ctx context.Context, passageID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.attempts {
		if a.PassageID == passageID && a.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Leaderboard implements [Store.Leaderboard].
func (s *MemStore) Leaderboard(ctx context.Context, passageID string, limit int) ([]LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[string]Attempt)
	for _, a := range s.attempts {
		if a.PassageID != passageID {
			continue
		}
		prev, ok := best[a.UserID]
		if !ok || betterAttempt(a, prev) {
			best[a.UserID] = a
		}
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for _, a := range best {
		entries = append(entries, LeaderboardEntry{
			UserID:             a.UserID,
			AccuracyPercentage: a.AccuracyPercentage,
			TimeTakenSeconds:   a.TimeTakenSeconds,
			AttemptNumber:      a.AttemptNumber,
			SubmittedAt:        a.SubmittedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AccuracyPercentage != entries[j].AccuracyPercentage {
			return entries[i].AccuracyPercentage > entries[j].AccuracyPercentage
		}
		return entries[i].TimeTakenSeconds < entries[j].TimeTakenSeconds
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UserStats implements [Store.UserStats].
func (s *MemStore) UserStats(ctx context.Context, userID string) (UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := UserStats{UserID: userID}
	sum := 0.0
	for _, a := range s.attempts {
		if a.UserID != userID {
			continue
		}
		stats.TotalAttempts++
		stats.TotalWordsTyped += a.WordsTyped
		sum += a.AccuracyPercentage
		if a.AccuracyPercentage > stats.BestAccuracy {
			stats.BestAccuracy = a.AccuracyPercentage
		}
	}
	if stats.TotalAttempts > 0 {
		stats.AverageAccuracy = sum / float64(stats.TotalAttempts)
	}
	return stats, nil
}

// betterAttempt reports whether a outranks b: higher accuracy wins, lower
// time breaks ties.
func betterAttempt(a, b Attempt) bool {
	if a.AccuracyPercentage != b.AccuracyPercentage {
		return a.AccuracyPercentage > b.AccuracyPercentage
	}
	return a.TimeTakenSeconds < b.TimeTakenSeconds
}

// generateID produces a random 16-byte hex string using crypto/rand.
// The resulting string is 32 hex characters and is statistically unique.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
