package passage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the passages and attempts tables. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS passages (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    kind       TEXT NOT NULL DEFAULT 'typing',
    body       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_passages_kind ON passages(kind);

CREATE TABLE IF NOT EXISTS attempts (
    id                  TEXT PRIMARY KEY,
    passage_id          TEXT NOT NULL REFERENCES passages(id) ON DELETE CASCADE,
    user_id             TEXT NOT NULL,
    submitted_text      TEXT NOT NULL,
    words_typed         INTEGER NOT NULL DEFAULT 0,
    words_correct       INTEGER NOT NULL DEFAULT 0,
    words_wrong         INTEGER NOT NULL DEFAULT 0,
    accuracy_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
    time_taken_seconds  DOUBLE PRECISION NOT NULL DEFAULT 0,
    attempt_number      INTEGER NOT NULL DEFAULT 1,
    submitted_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_attempts_passage_user ON attempts(passage_id, user_id);
CREATE INDEX IF NOT EXISTS idx_attempts_user ON attempts(user_id);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// passages and attempts tables and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("passage: migrate: %w", err)
	}
	return nil
}

// AddPassage implements [Store.AddPassage].
func (s *PostgresStore) AddPassage(ctx context.Context, p Passage) (Passage, error) {
	if p.ID == "" {
		id, err := generateID()
		if err != nil {
			return Passage{}, fmt.Errorf("passage: generate id: %w", err)
		}
		p.ID = id
	}

	const query = `
		INSERT INTO passages (id, title, kind, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, p.ID, p.Title, defaultKind(p.Kind), p.Body).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Passage{}, fmt.Errorf("passage: add %q: %w", p.ID, ErrDuplicateID)
		}
		return Passage{}, fmt.Errorf("passage: add: %w", err)
	}
	return p, nil
}

// GetPassage implements [Store.GetPassage].
func (s *PostgresStore) GetPassage(ctx context.Context, id string) (Passage, error) {
	const query = `
		SELECT id, title, kind, body, created_at, updated_at
		FROM passages
		WHERE id = $1`

	var p Passage
	err := s.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Title, &p.Kind, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Passage{}, fmt.Errorf("passage: get %q: %w", id, ErrNotFound)
		}
		return Passage{}, fmt.Errorf("passage: get %q: %w", id, err)
	}
	return p, nil
}

// ListPassages implements [Store.ListPassages].
func (s *PostgresStore) ListPassages(ctx context.Context, opts ListOptions) ([]Passage, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if opts.Kind == "" {
		const query = `
			SELECT id, title, kind, body, created_at, updated_at
			FROM passages
			ORDER BY title`
		rows, err = s.db.Query(ctx, query)
	} else {
		const query = `
			SELECT id, title, kind, body, created_at, updated_at
			FROM passages
			WHERE kind = $1
			ORDER BY title`
		rows, err = s.db.Query(ctx, query, opts.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("passage: list: %w", err)
	}
	defer rows.Close()

	passages := []Passage{}
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.ID, &p.Title, &p.Kind, &p.Body, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("passage: list scan: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("passage: list: %w", err)
	}
	return passages, nil
}

// UpdatePassage implements [Store.UpdatePassage].
func (s *PostgresStore) UpdatePassage(ctx context.Context, p Passage) (Passage, error) {
	const query = `
		UPDATE passages SET
			title = $2, kind = $3, body = $4, updated_at = now()
		WHERE id = $1
		RETURNING kind, created_at, updated_at`

	err := s.db.QueryRow(ctx, query, p.ID, p.Title, defaultKind(p.Kind), p.Body).
		Scan(&p.Kind, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Passage{}, fmt.Errorf("passage: update %q: %w", p.ID, ErrNotFound)
		}
		return Passage{}, fmt.Errorf("passage: update: %w", err)
	}
	return p, nil
}

// RemovePassage implements [Store.RemovePassage]. Attempts referencing the
// passage are removed by the ON DELETE CASCADE constraint.
func (s *PostgresStore) RemovePassage(ctx context.Context, id string) error {
	const query = `DELETE FROM passages WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("passage: remove %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("passage: remove %q: %w", id, ErrNotFound)
	}
	return nil
}

// AddAttempt implements [Store.AddAttempt].
func (s *PostgresStore) AddAttempt(ctx context.Context, a Attempt) (Attempt, error) {
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

	const query = `
		INSERT INTO attempts (
			id, passage_id, user_id, submitted_text,
			words_typed, words_correct, words_wrong, accuracy_percentage,
			time_taken_seconds, attempt_number, submitted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := s.db.Exec(ctx, query,
		a.ID, a.PassageID, a.UserID, a.SubmittedText,
		a.WordsTyped, a.WordsCorrect, a.WordsWrong, a.AccuracyPercentage,
		a.TimeTakenSeconds, a.AttemptNumber, a.SubmittedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return Attempt{}, fmt.Errorf("passage: add attempt for %q: %w", a.PassageID, ErrNotFound)
		}
		return Attempt{}, fmt.Errorf("passage: add attempt: %w", err)
	}
	return a, nil
}

// ListAttempts implements [Store.ListAttempts].
func (s *PostgresStore) ListAttempts(ctx context.Context, passageID, userID string) ([]Attempt, error) {
	const baseQuery = `
		SELECT id, passage_id, user_id, submitted_text,
		       words_typed, words_correct, words_wrong, accuracy_percentage,
		       time_taken_seconds, attempt_number, submitted_at
		FROM attempts
		WHERE passage_id = $1`

	var (
		rows pgx.Rows
		err  error
	)
	if userID == "" {
		rows, err = s.db.Query(ctx, baseQuery+` ORDER BY submitted_at DESC`, passageID)
	} else {
		rows, err = s.db.Query(ctx, baseQuery+` AND user_id = $2 ORDER BY submitted_at DESC`, passageID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("passage: list attempts: %w", err)
	}
	defer rows.Close()

	attempts := []Attempt{}
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(
			&a.ID, &a.PassageID, &a.UserID, &a.SubmittedText,
			&a.WordsTyped, &a.WordsCorrect, &a.WordsWrong, &a.AccuracyPercentage,
			&a.TimeTakenSeconds, &a.AttemptNumber, &a.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("passage: list attempts scan: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("passage: list attempts: %w", err)
	}
	return attempts, nil
}

// CountAttempts implements [Store.CountAttempts].
func (s *PostgresStore) CountAttempts(ctx context.Context, passageID, userID string) (int, error) {
	const query = `SELECT count(*) FROM attempts WHERE passage_id = $1 AND user_id = $2`

	var n int
	if err := s.db.QueryRow(ctx, query, passageID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("passage: count attempts: %w", err)
	}
	return n, nil
}

// Leaderboard implements [Store.Leaderboard]. DISTINCT ON picks each user's
// best attempt; the outer ORDER BY ranks users against each other.
func (s *PostgresStore) Leaderboard(ctx context.Context, passageID string, limit int) ([]LeaderboardEntry, error) {
	const query = `
		SELECT user_id, accuracy_percentage, time_taken_seconds, attempt_number, submitted_at
		FROM (
			SELECT DISTINCT ON (user_id)
			       user_id, accuracy_percentage, time_taken_seconds, attempt_number, submitted_at
			FROM attempts
			WHERE passage_id = $1
			ORDER BY user_id, accuracy_percentage DESC, time_taken_seconds ASC
		) best
		ORDER BY accuracy_percentage DESC, time_taken_seconds ASC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, passageID, limit)
	if err != nil {
		return nil, fmt.Errorf("passage: leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.AccuracyPercentage, &e.TimeTakenSeconds, &e.AttemptNumber, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("passage: leaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("passage: leaderboard: %w", err)
	}
	return entries, nil
}

// UserStats implements [Store.UserStats].
func (s *PostgresStore) UserStats(ctx context.Context, userID string) (UserStats, error) {
	const query = `
		SELECT count(*),
		       coalesce(avg(accuracy_percentage), 0),
		       coalesce(max(accuracy_percentage), 0),
		       coalesce(sum(words_typed), 0)
		FROM attempts
		WHERE user_id = $1`

	stats := UserStats{UserID: userID}
	err := s.db.QueryRow(ctx, query, userID).
		Scan(&stats.TotalAttempts, &stats.AverageAccuracy, &stats.BestAccuracy, &stats.TotalWordsTyped)
	if err != nil {
		return UserStats{}, fmt.Errorf("passage: user stats: %w", err)
	}
	return stats, nil
}

// defaultKind returns the kind value, defaulting to "typing" if empty.
func defaultKind(k Kind) Kind {
	if k == "" {
		return KindTyping
	}
	return k
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isForeignKeyError checks whether a PostgreSQL error is a foreign-key
// violation (SQLSTATE 23503).
func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
