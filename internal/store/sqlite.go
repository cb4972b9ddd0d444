package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/me/reel/pkg/model"
)

// SQLiteStore implements Store backed by SQLite via modernc.org/sqlite
// (pure Go, no CGO).
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// the connection pragmas. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger.With("component", "store")}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("running migrations")
	return migrate(ctx, s.db)
}

// --- Scenario CRUD ---

func (s *SQLiteStore) CreateScenario(ctx context.Context, scn *model.Scenario) error {
	s.logger.Debug("sql", "op", "insert", "table", "scenarios", "id", scn.ID)

	itemsJSON, err := json.Marshal(scn.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	persistJSON, err := marshalPersist(scn.Persist)
	if err != nil {
		return fmt.Errorf("marshal persist: %w", err)
	}

	// Default speed to 1 if not set.
	speed := scn.Speed
	if speed == 0 {
		speed = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, name, description, content_hash, raw_yaml, speed, persist, items, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scn.ID, scn.Name, scn.Description, scn.ContentHash, scn.RawYAML,
		speed, persistJSON, string(itemsJSON),
		scn.CreatedAt.Format(time.RFC3339Nano), scn.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	s.logger.Debug("sql", "op", "select", "table", "scenarios", "id", id)

	var scn model.Scenario
	var itemsJSON, persistJSON string
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, content_hash, raw_yaml, speed, persist, items, created_at, updated_at
		 FROM scenarios WHERE id = ?`, id,
	).Scan(&scn.ID, &scn.Name, &scn.Description, &scn.ContentHash, &scn.RawYAML,
		&scn.Speed, &persistJSON, &itemsJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &scn.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if scn.Persist, err = unmarshalPersist(persistJSON); err != nil {
		return nil, fmt.Errorf("unmarshal persist: %w", err)
	}
	scn.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	scn.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &scn, nil
}

func (s *SQLiteStore) GetScenarioByName(ctx context.Context, name string) (*model.Scenario, error) {
	s.logger.Debug("sql", "op", "select_by_name", "table", "scenarios", "name", name)

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM scenarios WHERE name = ? ORDER BY created_at DESC LIMIT 1`, name,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetScenario(ctx, id)
}

func (s *SQLiteStore) GetScenarioByHash(ctx context.Context, hash string) (*model.Scenario, error) {
	s.logger.Debug("sql", "op", "select_by_hash", "table", "scenarios", "hash", hash)

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM scenarios WHERE content_hash = ?`, hash,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetScenario(ctx, id)
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, opts model.ListOptions) ([]*model.Scenario, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "scenarios", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, content_hash, raw_yaml, speed, persist, items, created_at, updated_at
		 FROM scenarios ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var scenarios []*model.Scenario
	for rows.Next() {
		var scn model.Scenario
		var itemsJSON, persistJSON string
		var createdAt, updatedAt string

		if err := rows.Scan(&scn.ID, &scn.Name, &scn.Description, &scn.ContentHash, &scn.RawYAML,
			&scn.Speed, &persistJSON, &itemsJSON, &createdAt, &updatedAt); err != nil {
			return nil, 0, err
		}
		json.Unmarshal([]byte(itemsJSON), &scn.Items)
		scn.Persist, _ = unmarshalPersist(persistJSON)
		scn.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		scn.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

		scenarios = append(scenarios, &scn)
	}
	return scenarios, total, rows.Err()
}

func (s *SQLiteStore) UpdateScenario(ctx context.Context, scn *model.Scenario) error {
	s.logger.Debug("sql", "op", "update", "table", "scenarios", "id", scn.ID)

	itemsJSON, err := json.Marshal(scn.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	persistJSON, err := marshalPersist(scn.Persist)
	if err != nil {
		return fmt.Errorf("marshal persist: %w", err)
	}

	speed := scn.Speed
	if speed == 0 {
		speed = 1
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE scenarios SET name=?, description=?, content_hash=?, raw_yaml=?, speed=?, persist=?, items=?, updated_at=?
		 WHERE id=?`,
		scn.Name, scn.Description, scn.ContentHash, scn.RawYAML,
		speed, persistJSON, string(itemsJSON),
		scn.UpdatedAt.Format(time.RFC3339Nano), scn.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("scenario %s not found", scn.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "scenarios", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("scenario %s not found", id)
	}
	return nil
}

// marshalPersist encodes the optional persist spec; nil maps to the
// empty string so the column stays NOT NULL.
func marshalPersist(p *model.PersistSpec) (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalPersist(raw string) (*model.PersistSpec, error) {
	if raw == "" {
		return nil, nil
	}
	var p model.PersistSpec
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
