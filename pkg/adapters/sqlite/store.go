package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/teamboard/pkg/domain"
	_ "modernc.org/sqlite"
)

// Store implements ports.TeamStore on SQLite.
// Members, links and capabilities live in child tables and keep their order.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates it.
// ":memory:" gives a private in-memory database.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS teams (
			id                   TEXT PRIMARY KEY,
			name                 TEXT NOT NULL,
			description          TEXT NOT NULL DEFAULT '',
			logo_url             TEXT NOT NULL DEFAULT '',
			agreement_title      TEXT NOT NULL DEFAULT '',
			agreement_body       TEXT NOT NULL DEFAULT '',
			agreement_updated_at TEXT NOT NULL DEFAULT '',
			created_at           TEXT NOT NULL,
			updated_at           TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_teams_created ON teams(created_at, name);

		CREATE TABLE IF NOT EXISTS team_members (
			team_id  TEXT    NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			role     TEXT    NOT NULL DEFAULT '',
			email    TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (team_id, position)
		);

		CREATE TABLE IF NOT EXISTS team_links (
			team_id  TEXT    NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title    TEXT    NOT NULL,
			url      TEXT    NOT NULL,
			PRIMARY KEY (team_id, position)
		);

		CREATE TABLE IF NOT EXISTS team_capabilities (
			team_id       TEXT    NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			position      INTEGER NOT NULL,
			capability_id TEXT    NOT NULL,
			PRIMARY KEY (team_id, position)
		);
	`)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Save upserts the team row and rewrites its child rows in one transaction.
func (s *Store) Save(ctx context.Context, team *domain.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO teams (id, name, description, logo_url, agreement_title, agreement_body, agreement_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			logo_url = excluded.logo_url,
			agreement_title = excluded.agreement_title,
			agreement_body = excluded.agreement_body,
			agreement_updated_at = excluded.agreement_updated_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		team.ID, team.Name, team.Description, team.LogoURL,
		team.WorkingAgreement.Title, team.WorkingAgreement.Body, formatTime(team.WorkingAgreement.UpdatedAt),
		formatTime(team.CreatedAt), formatTime(team.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert team: %w", err)
	}

	for _, table := range []string{"team_members", "team_links", "team_capabilities"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE team_id = ?", team.ID); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", table, err)
		}
	}

	for i, m := range team.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_members (team_id, position, name, role, email) VALUES (?, ?, ?, ?, ?)`,
			team.ID, i, m.Name, m.Role, m.Email); err != nil {
			return fmt.Errorf("sqlite: insert member: %w", err)
		}
	}
	for i, l := range team.Links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_links (team_id, position, title, url) VALUES (?, ?, ?, ?)`,
			team.ID, i, l.Title, l.URL); err != nil {
			return fmt.Errorf("sqlite: insert link: %w", err)
		}
	}
	for i, id := range team.Capabilities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_capabilities (team_id, position, capability_id) VALUES (?, ?, ?)`,
			team.ID, i, id); err != nil {
			return fmt.Errorf("sqlite: insert capability: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Load reads a team and its child rows.
func (s *Store) Load(ctx context.Context, id string) (*domain.Team, error) {
	return load(ctx, s.db, id)
}

func load(ctx context.Context, q querier, id string) (*domain.Team, error) {
	var team domain.Team
	var agreementUpdated, created, updated string
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description, logo_url, agreement_title, agreement_body, agreement_updated_at, created_at, updated_at
		FROM teams WHERE id = ?`, id).Scan(
		&team.ID, &team.Name, &team.Description, &team.LogoURL,
		&team.WorkingAgreement.Title, &team.WorkingAgreement.Body, &agreementUpdated,
		&created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load team %s: %w", id, err)
	}

	if team.WorkingAgreement.UpdatedAt, err = parseTime(agreementUpdated); err != nil {
		return nil, fmt.Errorf("sqlite: team %s: %w", id, err)
	}
	if team.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("sqlite: team %s: %w", id, err)
	}
	if team.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("sqlite: team %s: %w", id, err)
	}

	if err := scanRows(ctx, q, `SELECT name, role, email FROM team_members WHERE team_id = ? ORDER BY position`, id,
		func(rows *sql.Rows) error {
			var m domain.Member
			if err := rows.Scan(&m.Name, &m.Role, &m.Email); err != nil {
				return err
			}
			team.Members = append(team.Members, m)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := scanRows(ctx, q, `SELECT title, url FROM team_links WHERE team_id = ? ORDER BY position`, id,
		func(rows *sql.Rows) error {
			var l domain.Link
			if err := rows.Scan(&l.Title, &l.URL); err != nil {
				return err
			}
			team.Links = append(team.Links, l)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := scanRows(ctx, q, `SELECT capability_id FROM team_capabilities WHERE team_id = ? ORDER BY position`, id,
		func(rows *sql.Rows) error {
			var capID string
			if err := rows.Scan(&capID); err != nil {
				return err
			}
			team.Capabilities = append(team.Capabilities, capID)
			return nil
		}); err != nil {
		return nil, err
	}

	return &team, nil
}

func scanRows(ctx context.Context, q querier, query, id string, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("sqlite: scan: %w", err)
		}
	}
	return rows.Err()
}

// Delete removes the team; child rows cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete team: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete team: %w", err)
	}
	if n == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// List returns every team, oldest first.
func (s *Store) List(ctx context.Context) ([]*domain.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM teams ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list teams: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: list teams: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list teams: %w", err)
	}

	teams := make([]*domain.Team, 0, len(ids))
	for _, id := range ids {
		team, err := load(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	// RFC3339 text only sorts correctly within one fixed offset; normalise.
	domain.SortTeams(teams)
	return teams, nil
}
