package practice_test

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/lexiscore/lexiscore/internal/observe"
	"github.com/lexiscore/lexiscore/internal/passage"
	"github.com/lexiscore/lexiscore/internal/practice"
)

// newTestService wires a Service to a fresh MemStore with isolated metrics.
func newTestService(t *testing.T, opts ...practice.Option) (*practice.Service, *passage.MemStore) {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	store := passage.NewMemStore()
	opts = append([]practice.Option{practice.WithMetrics(m)}, opts...)
	return practice.NewService(store, opts...), store
}

func seedPassage(t *testing.T, store *passage.MemStore, body string) passage.Passage {
	t.Helper()
	p, err := store.AddPassage(context.Background(), passage.Passage{
		Title: "Fixture", Kind: passage.KindTyping, Body: body,
	})
	if err != nil {
		t.Fatalf("AddPassage: %v", err)
	}
	return p
}

func TestCompare(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	res := svc.Compare(context.Background(), "The quick brown fox.", "The quick brown fox.")
	if res.AccuracyPercentage != 100 {
		t.Errorf("accuracy = %v, want 100", res.AccuracyPercentage)
	}
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(t)
	p := seedPassage(t, store, "The quick brown fox jumps over the lazy dog.")

	res, err := svc.Submit(ctx, practice.SubmitRequest{
		PassageID:        p.ID,
		UserID:           "ana",
		Text:             "The quick brown fox jumps over the lazy dog.",
		TimeTakenSeconds: 42,
	})
	if err != nil {
		t.Fatalf("Submit: unexpected error: %v", err)
	}
	if res.Attempt.AccuracyPercentage != 100 {
		t.Errorf("accuracy = %v, want 100", res.Attempt.AccuracyPercentage)
	}
	if res.Attempt.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", res.Attempt.AttemptNumber)
	}
	if res.Attempt.ID == "" {
		t.Error("attempt was not assigned an ID")
	}
	if res.Attempt.WordsTyped != 9 {
		t.Errorf("words typed = %d, want 9", res.Attempt.WordsTyped)
	}

	// Second submission by the same user increments the attempt number.
	res, err = svc.Submit(ctx, practice.SubmitRequest{
		PassageID: p.ID,
		UserID:    "ana",
		Text:      "The quick brown fox",
	})
	if err != nil {
		t.Fatalf("Submit again: unexpected error: %v", err)
	}
	if res.Attempt.AttemptNumber != 2 {
		t.Errorf("attempt number = %d, want 2", res.Attempt.AttemptNumber)
	}
	if res.Attempt.AccuracyPercentage >= 100 {
		t.Errorf("accuracy = %v, want below 100 for a partial submission", res.Attempt.AccuracyPercentage)
	}

	// A different user starts back at 1.
	res, err = svc.Submit(ctx, practice.SubmitRequest{
		PassageID: p.ID,
		UserID:    "ben",
		Text:      "The quick brown fox jumps over the lazy dog.",
	})
	if err != nil {
		t.Fatalf("Submit other user: unexpected error: %v", err)
	}
	if res.Attempt.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", res.Attempt.AttemptNumber)
	}
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(t)
	p := seedPassage(t, store, "reference text")

	cases := []struct {
		name string
		req  practice.SubmitRequest
	}{
		{"missing passage id", practice.SubmitRequest{UserID: "ana", Text: "x"}},
		{"missing user id", practice.SubmitRequest{PassageID: p.ID, Text: "x"}},
		{"empty text", practice.SubmitRequest{PassageID: p.ID, UserID: "ana", Text: "   "}},
		{"negative time", practice.SubmitRequest{PassageID: p.ID, UserID: "ana", Text: "x", TimeTakenSeconds: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.req)
			if !errors.Is(err, practice.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSubmit_MissingPassage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Submit(context.Background(), practice.SubmitRequest{
		PassageID: "nope", UserID: "ana", Text: "hello",
	})
	if !errors.Is(err, passage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboard_Scores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(t)
	p := seedPassage(t, store, "text")

	fixtures := []passage.Attempt{
		{PassageID: p.ID, UserID: "ana", AccuracyPercentage: 95, TimeTakenSeconds: 30},
		{PassageID: p.ID, UserID: "ben", AccuracyPercentage: 90, TimeTakenSeconds: 120},
	}
	for _, a := range fixtures {
		if _, err := store.AddAttempt(ctx, a); err != nil {
			t.Fatalf("AddAttempt: %v", err)
		}
	}

	board, err := svc.Leaderboard(ctx, p.ID, 0)
	if err != nil {
		t.Fatalf("Leaderboard: unexpected error: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	// Sub-minute attempts count as one full minute: 95 * 100 / 1.
	if board[0].Score != 9500 {
		t.Errorf("score[0] = %d, want 9500", board[0].Score)
	}
	// Two minutes: 90 * 100 / 2.
	if board[1].Score != 4500 {
		t.Errorf("score[1] = %d, want 4500", board[1].Score)
	}
}

func TestLeaderboard_MissingPassage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Leaderboard(context.Background(), "nope", 10)
	if !errors.Is(err, passage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(t)
	p := seedPassage(t, store, "some reference words here")

	if _, err := svc.Submit(ctx, practice.SubmitRequest{
		PassageID: p.ID, UserID: "ana", Text: "some reference words here",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	stats, err := svc.UserStats(ctx, "ana")
	if err != nil {
		t.Fatalf("UserStats: unexpected error: %v", err)
	}
	if stats.TotalAttempts != 1 {
		t.Errorf("total attempts = %d, want 1", stats.TotalAttempts)
	}
	if stats.BestAccuracy != 100 {
		t.Errorf("best accuracy = %v, want 100", stats.BestAccuracy)
	}

	_, err = svc.UserStats(ctx, "  ")
	if !errors.Is(err, practice.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank user, got %v", err)
	}
}

func TestPassageCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreatePassage(ctx, passage.Passage{Title: "No body"})
	if !errors.Is(err, practice.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty body, got %v", err)
	}

	p, err := svc.CreatePassage(ctx, passage.Passage{
		Title: "Drill", Kind: passage.KindDictation, Body: "Listen and type.",
	})
	if err != nil {
		t.Fatalf("CreatePassage: unexpected error: %v", err)
	}

	got, err := svc.GetPassage(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPassage: unexpected error: %v", err)
	}
	if got.Title != "Drill" {
		t.Errorf("title = %q, want Drill", got.Title)
	}

	if _, err := svc.ListPassages(ctx, "speedrun"); !errors.Is(err, practice.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad kind, got %v", err)
	}
	listed, err := svc.ListPassages(ctx, passage.KindDictation)
	if err != nil {
		t.Fatalf("ListPassages: unexpected error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(listed))
	}

	got.Body = "Listen carefully and type."
	updated, err := svc.UpdatePassage(ctx, got)
	if err != nil {
		t.Fatalf("UpdatePassage: unexpected error: %v", err)
	}
	if updated.Body != got.Body {
		t.Errorf("updated body = %q, want %q", updated.Body, got.Body)
	}
	if !updated.CreatedAt.Equal(got.CreatedAt) {
		t.Errorf("created_at changed from %v to %v", got.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("updated_at is zero after update")
	}

	if err := svc.DeletePassage(ctx, p.ID); err != nil {
		t.Fatalf("DeletePassage: unexpected error: %v", err)
	}
	if _, err := svc.GetPassage(ctx, p.ID); !errors.Is(err, passage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
