package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/mazecode/pkg/domain"

	_ "modernc.org/sqlite"
)

// Store implements ports.SnapshotStore on a SQLite database.
// Each save is one row in saves plus one row per top-level instruction.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	// modernc.org/sqlite registers the "sqlite" driver name.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the CLI read while a server writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			saved_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS instructions (
			slot TEXT NOT NULL REFERENCES saves(slot) ON DELETE CASCADE,
			program TEXT NOT NULL,
			position INTEGER NOT NULL,
			id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			condition_id INTEGER NOT NULL DEFAULT 0,
			condition TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (slot, program, position)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return nil
}

// Save replaces the snapshot stored under key.
func (s *Store) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM instructions WHERE slot = ?`, key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO saves(slot, saved_at_unixms) VALUES(?, ?)`, key, savedAt.UnixMilli()); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO instructions(slot, program, position, id, kind, condition_id, condition) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range domain.ProgramNames {
		for pos, it := range snap.Program(name) {
			if _, err := stmt.ExecContext(ctx, key, string(name), pos, int64(it.ID), it.Kind.String(), int64(it.ConditionID), it.Condition); err != nil {
				return fmt.Errorf("failed to insert %s[%d]: %w", name, pos, err)
			}
		}
	}
	return tx.Commit()
}

// Load rebuilds the snapshot stored under key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	var savedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT saved_at_unixms FROM saves WHERE slot = ?`, key).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT program, id, kind, condition_id, condition FROM instructions WHERE slot = ? ORDER BY program, position`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := domain.NewSnapshot()
	snap.SavedAt = time.UnixMilli(savedAt)
	for rows.Next() {
		var (
			program, kindName, cond string
			id, condID              int64
		)
		if err := rows.Scan(&program, &id, &kindName, &condID, &cond); err != nil {
			return nil, err
		}
		name, err := domain.ParseProgramName(program)
		if err != nil {
			return nil, err
		}
		kind, err := domain.ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		snap.Programs[name] = append(snap.Programs[name], domain.InstructionSnapshot{
			ID:          domain.InstructionID(id),
			Kind:        kind,
			ConditionID: domain.InstructionID(condID),
			Condition:   cond,
		})
	}
	return snap, rows.Err()
}

// Delete removes the save and its instructions.
func (s *Store) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// foreign_keys is per connection; delete children explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM instructions WHERE slot = ?`, key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, key); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot FROM saves ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
