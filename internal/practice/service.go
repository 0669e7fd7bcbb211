// Package practice implements the scoring workflow around passages: ad-hoc
// text comparison, attempt submission, leaderboards, and user statistics.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/lexiscore/lexiscore/internal/observe"
	"github.com/lexiscore/lexiscore/internal/passage"
	"github.com/lexiscore/lexiscore/pkg/textcompare"
)

// ErrInvalidInput wraps request validation failures so transport layers can
// map them to a 400 response.
var ErrInvalidInput = errors.New("invalid input")

// DefaultLeaderboardLimit caps leaderboard responses when the caller does not
// ask for a specific size.
const DefaultLeaderboardLimit = 10

// Option is a functional option for configuring a [Service].
type Option func(*Service)

// WithComparer overrides the text comparer used for scoring.
func WithComparer(c *textcompare.Comparer) Option {
	return func(s *Service) {
		s.comparer = c
	}
}

// WithMetrics overrides the metrics instance. Primarily for tests that want
// an isolated meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service runs practice sessions against a [passage.Store]. It is safe for
// concurrent use.
type Service struct {
	store    passage.Store
	comparer *textcompare.Comparer
	metrics  *observe.Metrics
}

// NewService creates a [Service] backed by store, configured with the
// supplied options. Without options it uses the default comparer tuning and
// the package-level metrics instance.
func NewService(store passage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		comparer: textcompare.New(),
		metrics:  observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Compare scores candidate against reference without touching any stored
// passage. Used by the stateless comparison endpoint.
func (s *Service) Compare(ctx context.Context, reference, candidate string) textcompare.ComparisonResult {
	ctx, span := observe.StartSpan(ctx, "practice.Compare")
	defer span.End()

	start := time.Now()
	res := s.comparer.Compare(reference, candidate)
	s.metrics.RecordComparison(ctx, "api", time.Since(start).Seconds())
	return res
}

// SubmitRequest is one user submission of a passage.
type SubmitRequest struct {
	PassageID string
	UserID    string

	// Text is what the user typed.
	Text string

	// TimeTakenSeconds is the client-measured duration. Zero when unknown.
	TimeTakenSeconds float64
}

// SubmitResult pairs the persisted attempt with the full comparison report
// it was scored from.
type SubmitResult struct {
	Attempt    passage.Attempt              `json:"attempt"`
	Comparison textcompare.ComparisonResult `json:"comparison"`
}

// Submit scores req.Text against the referenced passage, persists the
// attempt with the user's next attempt number, and returns both.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	ctx, span := observe.StartSpan(ctx, "practice.Submit",
		trace.WithAttributes(
			observe.Attr("passage_id", req.PassageID),
			observe.Attr("user_id", req.UserID),
		),
	)
	defer span.End()

	if err := validateSubmit(req); err != nil {
		return SubmitResult{}, err
	}

	p, err := s.store.GetPassage(ctx, req.PassageID)
	if err != nil {
		return SubmitResult{}, err
	}

	count, err := s.store.CountAttempts(ctx, req.PassageID, req.UserID)
	if err != nil {
		return SubmitResult{}, err
	}

	start := time.Now()
	cmp := s.comparer.Compare(p.Body, req.Text)
	s.metrics.RecordComparison(ctx, "attempt", time.Since(start).Seconds())

	attempt := passage.Attempt{
		PassageID:          p.ID,
		UserID:             req.UserID,
		SubmittedText:      req.Text,
		WordsTyped:         cmp.CandidateWords,
		WordsCorrect:       cmp.WordsCorrect,
		WordsWrong:         cmp.WordsWrong,
		AccuracyPercentage: cmp.AccuracyPercentage,
		TimeTakenSeconds:   req.TimeTakenSeconds,
		AttemptNumber:      count + 1,
	}
	attempt, err = s.store.AddAttempt(ctx, attempt)
	if err != nil {
		return SubmitResult{}, err
	}

	s.metrics.RecordAttempt(ctx, string(p.Kind), p.ID, attempt.AccuracyPercentage)
	observe.Logger(ctx).Info("attempt scored",
		"passage_id", p.ID,
		"user_id", req.UserID,
		"attempt_number", attempt.AttemptNumber,
		"accuracy", attempt.AccuracyPercentage,
	)

	return SubmitResult{Attempt: attempt, Comparison: cmp}, nil
}

// Leaderboard returns the ranked best attempts for a passage, each entry
// annotated with its composite score. A limit of 0 or less uses
// [DefaultLeaderboardLimit].
func (s *Service) Leaderboard(ctx context.Context, passageID string, limit int) ([]passage.LeaderboardEntry, error) {
	ctx, span := observe.StartSpan(ctx, "practice.Leaderboard")
	defer span.End()

	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	// The passage must exist so a bad ID yields 404 rather than an empty board.
	if _, err := s.store.GetPassage(ctx, passageID); err != nil {
		return nil, err
	}

	entries, err := s.store.Leaderboard(ctx, passageID, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Score = scoreOf(entries[i].AccuracyPercentage, entries[i].TimeTakenSeconds)
	}
	return entries, nil
}

// UserStats aggregates the user's practice history.
func (s *Service) UserStats(ctx context.Context, userID string) (passage.UserStats, error) {
	ctx, span := observe.StartSpan(ctx, "practice.UserStats")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return passage.UserStats{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.UserStats(ctx, userID)
}

// Attempts lists a user's attempt history for a passage, newest first. An
// empty userID returns every attempt at the passage.
func (s *Service) Attempts(ctx context.Context, passageID, userID string) ([]passage.Attempt, error) {
	ctx, span := observe.StartSpan(ctx, "practice.Attempts")
	defer span.End()

	if _, err := s.store.GetPassage(ctx, passageID); err != nil {
		return nil, err
	}
	return s.store.ListAttempts(ctx, passageID, userID)
}

// CreatePassage validates and stores a new passage.
func (s *Service) CreatePassage(ctx context.Context, p passage.Passage) (passage.Passage, error) {
	if err := validatePassage(p); err != nil {
		return passage.Passage{}, err
	}
	return s.store.AddPassage(ctx, p)
}

// GetPassage retrieves a passage by ID.
func (s *Service) GetPassage(ctx context.Context, id string) (passage.Passage, error) {
	return s.store.GetPassage(ctx, id)
}

// ListPassages returns passages, optionally filtered by kind.
func (s *Service) ListPassages(ctx context.Context, kind passage.Kind) ([]passage.Passage, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: kind %q is invalid; valid values: dictation, typing", ErrInvalidInput, kind)
	}
	return s.store.ListPassages(ctx, passage.ListOptions{Kind: kind})
}

// UpdatePassage validates and replaces an existing passage, returning the
// stored version with its timestamps.
func (s *Service) UpdatePassage(ctx context.Context, p passage.Passage) (passage.Passage, error) {
	if err := validatePassage(p); err != nil {
		return passage.Passage{}, err
	}
	return s.store.UpdatePassage(ctx, p)
}

// DeletePassage removes a passage and its attempts.
func (s *Service) DeletePassage(ctx context.Context, id string) error {
	return s.store.RemovePassage(ctx, id)
}

// scoreOf derives the composite leaderboard score from accuracy and elapsed
// time: accuracy scaled by 100 and divided by the attempt duration in
// minutes, with sub-minute attempts counting as one full minute.
func scoreOf(accuracy, timeTakenSeconds float64) int {
	minutes := timeTakenSeconds / 60
	if minutes < 1 {
		minutes = 1
	}
	return int(accuracy * 100 / minutes)
}

func validateSubmit(req SubmitRequest) error {
	var errs []error
	if strings.TrimSpace(req.PassageID) == "" {
		errs = append(errs, fmt.Errorf("%w: passage id is required", ErrInvalidInput))
	}
	if strings.TrimSpace(req.UserID) == "" {
		errs = append(errs, fmt.Errorf("%w: user id is required", ErrInvalidInput))
	}
	if strings.TrimSpace(req.Text) == "" {
		errs = append(errs, fmt.Errorf("%w: submitted text is empty", ErrInvalidInput))
	}
	if req.TimeTakenSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: time taken must not be negative", ErrInvalidInput))
	}
	return errors.Join(errs...)
}

func validatePassage(p passage.Passage) error {
	var errs []error
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, fmt.Errorf("%w: passage title is required", ErrInvalidInput))
	}
	if strings.TrimSpace(p.Body) == "" {
		errs = append(errs, fmt.Errorf("%w: passage body is required", ErrInvalidInput))
	}
	if p.Kind != "" && !p.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("%w: kind %q is invalid; valid values: dictation, typing", ErrInvalidInput, p.Kind))
	}
	return errors.Join(errs...)
}
