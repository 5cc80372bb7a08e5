package core

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/3cpo-dev/phonedeploy/pkg/api"
)

// startedLayout is fixed width so ORDER BY on the text column is chronological.
const startedLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a SQLite-backed deployment history.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not initialized")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts d and returns its row id.
func (s *Store) Record(ctx context.Context, d api.Deployment) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deployments (started_at, api_url, source, device, status, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		d.StartedAt.UTC().Format(startedLayout), d.APIURL, string(d.Source), d.Device, string(d.Status), d.Detail)
	if err != nil {
		return 0, fmt.Errorf("insert deployment: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit deployments, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]api.Deployment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, api_url, source, device, status, detail FROM deployments ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deployments: %w", err)
	}
	defer rows.Close()

	var out []api.Deployment
	for rows.Next() {
		var (
			d                     api.Deployment
			started, source, stat string
		)
		if err := rows.Scan(&d.ID, &started, &d.APIURL, &source, &d.Device, &stat, &d.Detail); err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		d.StartedAt, err = time.Parse(startedLayout, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		d.Source = api.BackendSource(source)
		d.Status = api.RunStatus(stat)
		out = append(out, d)
	}
	return out, rows.Err()
}
