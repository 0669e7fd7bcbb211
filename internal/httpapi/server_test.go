package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/lexiscore/lexiscore/internal/httpapi"
	"github.com/lexiscore/lexiscore/internal/observe"
	"github.com/lexiscore/lexiscore/internal/passage"
	"github.com/lexiscore/lexiscore/internal/practice"
)

// newTestMux builds a ServeMux with all API routes on a fresh in-memory store.
func newTestMux(t *testing.T) (*http.ServeMux, *passage.MemStore) {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	store := passage.NewMemStore()
	svc := practice.NewService(store, practice.WithMetrics(m))

	mux := http.NewServeMux()
	httpapi.NewServer(svc).Register(mux)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCompareEndpoint(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)
	rec := doJSON(t, mux, "POST", "/api/compare",
		`{"reference": "The quick brown fox.", "candidate": "The quik brown fox."}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var res struct {
		WordsCorrect int     `json:"words_correct"`
		WordsWrong   int     `json:"words_wrong"`
		Accuracy     float64 `json:"accuracy_percentage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.WordsCorrect != 3 {
		t.Errorf("words correct = %d, want 3", res.WordsCorrect)
	}
	if res.WordsWrong != 1 {
		t.Errorf("words wrong = %d, want 1", res.WordsWrong)
	}
}

func TestCompareEndpoint_BadBody(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)
	rec := doJSON(t, mux, "POST", "/api/compare", `{"reference": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPassageCRUD(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	// Create.
	rec := doJSON(t, mux, "POST", "/api/passages",
		`{"title": "Pangram", "kind": "typing", "body": "The quick brown fox jumps over the lazy dog."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body)
	}
	var created passage.Passage
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created passage has no ID")
	}

	// Get.
	rec = doJSON(t, mux, "GET", "/api/passages/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	// List with filter.
	rec = doJSON(t, mux, "GET", "/api/passages?kind=typing", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var listed []passage.Passage
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("list: expected 1 passage, got %d", len(listed))
	}

	// Update.
	rec = doJSON(t, mux, "PUT", "/api/passages/"+created.ID,
		`{"title": "Pangram v2", "kind": "typing", "body": "New body."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	var updated passage.Passage
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Title != "Pangram v2" {
		t.Errorf("updated title = %q, want %q", updated.Title, "Pangram v2")
	}
	// The response carries the stored record, not an echo of the request.
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("updated created_at = %v, want %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("updated updated_at is zero")
	}

	// Delete.
	rec = doJSON(t, mux, "DELETE", "/api/passages/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, mux, "GET", "/api/passages/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreatePassage_Invalid(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)
	rec := doJSON(t, mux, "POST", "/api/passages", `{"title": "No body", "kind": "typing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body)
	}
}

func TestCreatePassage_DuplicateID(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)
	body := `{"id": "dup-01", "title": "First", "kind": "typing", "body": "text"}`
	if rec := doJSON(t, mux, "POST", "/api/passages", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", rec.Code)
	}
	rec := doJSON(t, mux, "POST", "/api/passages", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}
}

func TestSubmitAttempt(t *testing.T) {
	t.Parallel()

	mux, store := newTestMux(t)
	p, err := store.AddPassage(context.Background(), passage.Passage{
		Title: "Drill", Kind: passage.KindDictation, Body: "She sells sea shells.",
	})
	if err != nil {
		t.Fatalf("AddPassage: %v", err)
	}

	rec := doJSON(t, mux, "POST", "/api/passages/"+p.ID+"/attempts",
		`{"user_id": "ana", "text": "She sells sea shells.", "time_taken_seconds": 12.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}

	var res practice.SubmitResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Attempt.AttemptNumber != 1 {
		t.Errorf("attempt number = %d, want 1", res.Attempt.AttemptNumber)
	}
	if res.Attempt.AccuracyPercentage != 100 {
		t.Errorf("accuracy = %v, want 100", res.Attempt.AccuracyPercentage)
	}
	if res.Comparison.TotalWords != 4 {
		t.Errorf("total words = %d, want 4", res.Comparison.TotalWords)
	}

	// Attempt history.
	rec = doJSON(t, mux, "GET", "/api/passages/"+p.ID+"/attempts?user_id=ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", rec.Code)
	}
	var attempts []passage.Attempt
	if err := json.NewDecoder(rec.Body).Decode(&attempts); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("history: expected 1 attempt, got %d", len(attempts))
	}
}

func TestSubmitAttempt_MissingPassage(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)
	rec := doJSON(t, mux, "POST", "/api/passages/nope/attempts",
		`{"user_id": "ana", "text": "hello"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404; body: %s", rec.Code, rec.Body)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mux, store := newTestMux(t)
	p, _ := store.AddPassage(ctx, passage.Passage{Title: "Race", Kind: passage.KindTyping, Body: "text"})
	fixtures := []passage.Attempt{
		{PassageID: p.ID, UserID: "ana", AccuracyPercentage: 95, TimeTakenSeconds: 30},
		{PassageID: p.ID, UserID: "ben", AccuracyPercentage: 85, TimeTakenSeconds: 20},
	}
	for _, a := range fixtures {
		if _, err := store.AddAttempt(ctx, a); err != nil {
			t.Fatalf("AddAttempt: %v", err)
		}
	}

	rec := doJSON(t, mux, "GET", "/api/passages/"+p.ID+"/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	var board []passage.LeaderboardEntry
	if err := json.NewDecoder(rec.Body).Decode(&board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].UserID != "ana" {
		t.Errorf("top entry = %q, want ana", board[0].UserID)
	}
	if board[0].Score == 0 {
		t.Error("top entry score not populated")
	}

	rec = doJSON(t, mux, "GET", "/api/passages/"+p.ID+"/leaderboard?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestUserStatsEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mux, store := newTestMux(t)
	p, _ := store.AddPassage(ctx, passage.Passage{Title: "Drill", Kind: passage.KindTyping, Body: "text"})
	if _, err := store.AddAttempt(ctx, passage.Attempt{
		PassageID: p.ID, UserID: "ana", AccuracyPercentage: 90, WordsTyped: 5,
	}); err != nil {
		t.Fatalf("AddAttempt: %v", err)
	}

	rec := doJSON(t, mux, "GET", "/api/users/ana/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	var stats passage.UserStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalAttempts != 1 || stats.BestAccuracy != 90 {
		t.Errorf("stats = %+v, want 1 attempt at 90%%", stats)
	}
}
