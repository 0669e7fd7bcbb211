// Package passage holds the practice passage and attempt model plus the
// storage implementations behind the Lexiscore server.
package passage

import "time"

// Kind distinguishes the two practice modes a passage can be used in.
type Kind string

const (
	// KindDictation passages are read aloud to the user, who types what
	// they hear.
	KindDictation Kind = "dictation"

	// KindTyping passages are shown on screen for transcription speed and
	// accuracy practice.
	KindTyping Kind = "typing"
)

// IsValid reports whether k is a recognised passage kind.
func (k Kind) IsValid() bool {
	return k == KindDictation || k == KindTyping
}

// Passage is a reference text users practise against.
type Passage struct {
	// ID uniquely identifies the passage. Generated when empty on insert.
	ID string `json:"id" yaml:"id"`

	// Title is the passage's display name.
	Title string `json:"title" yaml:"title"`

	// Kind selects the practice mode this passage is intended for.
	Kind Kind `json:"kind" yaml:"kind"`

	// Body is the reference text itself.
	Body string `json:"body" yaml:"body"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Attempt records one scored submission of a passage by a user.
type Attempt struct {
	ID        string `json:"id"`
	PassageID string `json:"passage_id"`
	UserID    string `json:"user_id"`

	// SubmittedText is the raw text the user typed, kept for review.
	SubmittedText string `json:"submitted_text"`

	WordsTyped         int     `json:"words_typed"`
	WordsCorrect       int     `json:"words_correct"`
	WordsWrong         int     `json:"words_wrong"`
	AccuracyPercentage float64 `json:"accuracy_percentage"`

	// TimeTakenSeconds is the wall-clock duration the user reported for the
	// attempt. Zero when the client did not measure it.
	TimeTakenSeconds float64 `json:"time_taken_seconds"`

	// AttemptNumber is this user's 1-based attempt count on the passage.
	AttemptNumber int `json:"attempt_number"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// LeaderboardEntry is one user's best attempt at a passage, ranked by
// accuracy first and time second.
type LeaderboardEntry struct {
	UserID             string    `json:"user_id"`
	AccuracyPercentage float64   `json:"accuracy_percentage"`
	TimeTakenSeconds   float64   `json:"time_taken_seconds"`
	AttemptNumber      int       `json:"attempt_number"`
	SubmittedAt        time.Time `json:"submitted_at"`

	// Score is the composite ranking value derived from accuracy and time.
	// Filled in by the practice service, not by stores.
	Score int `json:"score"`
}

// UserStats aggregates a user's practice history across all passages.
type UserStats struct {
	UserID          string  `json:"user_id"`
	TotalAttempts   int     `json:"total_attempts"`
	AverageAccuracy float64 `json:"average_accuracy"`
	BestAccuracy    float64 `json:"best_accuracy"`
	TotalWordsTyped int     `json:"total_words_typed"`
}
