package snippets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/conduitedeprojet/testrunner/internal/shared/id"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
)

// ErrNotFound is returned when a snippet does not exist in the requested scope
var ErrNotFound = errors.New("snippet not found")

// Store provides snippet persistence
type Store struct {
	db *sql.DB
}

// Open creates the database connection and initializes the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snippets (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL,
		issue_id     TEXT NOT NULL,
		program_code TEXT NOT NULL,
		test_code    TEXT NOT NULL,
		creator      TEXT NOT NULL DEFAULT '',
		created_at   INTEGER NOT NULL,
		updated_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snippets_issue ON snippets(project_id, issue_id, created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Create saves a new snippet under project/issue
func (s *Store) Create(ctx context.Context, projectID, issueID, programCode, testCode, creator string) (*types.Snippet, error) {
	now := time.Now().UTC()
	snippet := &types.Snippet{
		ID:          id.NewSnippetID().String(),
		ProjectID:   projectID,
		IssueID:     issueID,
		ProgramCode: programCode,
		TestCode:    testCode,
		Creator:     creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snippets (id, project_id, issue_id, program_code, test_code, creator, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID, projectID, issueID, programCode, testCode, creator,
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snippet: %w", err)
	}
	return snippet, nil
}

// List returns the snippets of an issue, oldest first
func (s *Store) List(ctx context.Context, projectID, issueID string) ([]*types.Snippet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, issue_id, program_code, test_code, creator, created_at, updated_at
		FROM snippets
		WHERE project_id = ? AND issue_id = ?
		ORDER BY created_at, id`,
		projectID, issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]*types.Snippet, 0)
	for rows.Next() {
		snippet, err := scan(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, snippet)
	}
	return snippets, rows.Err()
}

// Get retrieves one snippet of an issue
func (s *Store) Get(ctx context.Context, projectID, issueID, snippetID string) (*types.Snippet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, issue_id, program_code, test_code, creator, created_at, updated_at
		FROM snippets
		WHERE id = ? AND project_id = ? AND issue_id = ?`,
		snippetID, projectID, issueID,
	)
	snippet, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return snippet, err
}

// Update replaces the code of a snippet
func (s *Store) Update(ctx context.Context, projectID, issueID, snippetID, programCode, testCode string) (*types.Snippet, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE snippets SET program_code = ?, test_code = ?, updated_at = ?
		WHERE id = ? AND project_id = ? AND issue_id = ?`,
		programCode, testCode, now.UnixNano(), snippetID, projectID, issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update snippet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, projectID, issueID, snippetID)
}

// Delete removes a snippet
func (s *Store) Delete(ctx context.Context, projectID, issueID, snippetID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND project_id = ? AND issue_id = ?`,
		snippetID, projectID, issueID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete snippet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored snippets
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snippets: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*types.Snippet, error) {
	var (
		snippet          types.Snippet
		created, updated int64
	)
	err := row.Scan(
		&snippet.ID, &snippet.ProjectID, &snippet.IssueID,
		&snippet.ProgramCode, &snippet.TestCode, &snippet.Creator,
		&created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snippet: %w", err)
	}
	snippet.CreatedAt = time.Unix(0, created).UTC()
	snippet.UpdatedAt = time.Unix(0, updated).UTC()
	return &snippet, nil
}
