/*
Package sqlite provides a SQLite-backed implementation of the lookup interfaces.

PURPOSE:
  Implements the read-only collaborators (refdata.Source and claims.Directory)
  over SQLite for tooling and integration tests. In production the same
  queries run against the host's database; only SQL dialect details differ.

INTERFACES IMPLEMENTED:
  refdata.Source:   Generic existence + single-field lookups
  claims.Directory: Claim graph lookups for the payment rule engine

READ-ONLY CONTRACT:
  Validation never writes through this store. The only writers are the
  Seed* helpers, which exist so tests and the postcheck CLI can build a
  reference database.

KEY TABLES:
  entities:          (kind, id, field, value) triple store for refdata
  claims:            Claim ids
  claim_coverages:   Active coverages (payer id, subscriber number)
  claim_line_items:  Active line items (proc code)
  claim_queues:      Queue names

WAL MODE:
  Opened with WAL so parallel validation passes reading the same database
  do not block each other.

USAGE:
  store, err := sqlite.New("./reference.db")
  if err != nil { ... }
  defer store.Close()

  posting := claims.NewPostClaimPayment(store)

SEE ALSO:
  - refdata/refdata.go: Source interface
  - claims/types.go:    Directory interface
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/carelane/effectkit/claims"
	"github.com/carelane/effectkit/refdata"
)

// Store implements refdata.Source and claims.Directory over SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) a SQLite store. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Generic reference entities (kind + id + scalar fields)
	CREATE TABLE IF NOT EXISTS entities (
		kind  TEXT NOT NULL,
		id    TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (kind, id, field)
	);

	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS claim_coverages (
		id                TEXT PRIMARY KEY,
		claim_id          TEXT NOT NULL REFERENCES claims(id),
		payer_id          TEXT NOT NULL,
		subscriber_number TEXT NOT NULL DEFAULT '',
		active            INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_coverages_claim ON claim_coverages(claim_id, active);

	CREATE TABLE IF NOT EXISTS claim_line_items (
		id        TEXT PRIMARY KEY,
		claim_id  TEXT NOT NULL REFERENCES claims(id),
		proc_code TEXT NOT NULL,
		active    INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_line_items_claim ON claim_line_items(claim_id, active);

	CREATE TABLE IF NOT EXISTS claim_queues (
		name TEXT PRIMARY KEY
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// refdata.Source
// =============================================================================

// Exists implements refdata.Source. The synthetic field "" marks bare
// existence for entities seeded without fields.
func (s *Store) Exists(ctx context.Context, kind refdata.Kind, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM entities WHERE kind = ? AND id = ?`, string(kind), id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Field implements refdata.Source.
func (s *Store) Field(ctx context.Context, kind refdata.Kind, id, field string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entities WHERE kind = ? AND id = ? AND field = ?`,
		string(kind), id, field).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// =============================================================================
// claims.Directory
// =============================================================================

// ClaimExists implements claims.Directory.
func (s *Store) ClaimExists(ctx context.Context, claimID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM claims WHERE id = ?`, claimID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ActiveCoverages implements claims.Directory.
func (s *Store) ActiveCoverages(ctx context.Context, claimID string) ([]claims.Coverage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payer_id, subscriber_number FROM claim_coverages
		 WHERE claim_id = ? AND active = 1 ORDER BY id`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coverages []claims.Coverage
	for rows.Next() {
		var c claims.Coverage
		if err := rows.Scan(&c.ID, &c.PayerID, &c.SubscriberNumber); err != nil {
			return nil, err
		}
		coverages = append(coverages, c)
	}
	return coverages, rows.Err()
}

// ActiveLineItem implements claims.Directory.
func (s *Store) ActiveLineItem(ctx context.Context, claimID, lineItemID string) (*claims.LineItem, error) {
	var li claims.LineItem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, proc_code FROM claim_line_items
		 WHERE claim_id = ? AND id = ? AND active = 1`, claimID, lineItemID).Scan(&li.ID, &li.ProcCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// QueueExists implements claims.Directory.
func (s *Store) QueueExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM claim_queues WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// SEEDING - Test and tooling writers
// =============================================================================

// SeedEntity registers a reference entity with its scalar fields.
func (s *Store) SeedEntity(ctx context.Context, kind refdata.Kind, id string, fields map[string]string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entities (kind, id, field, value) VALUES (?, ?, '', '')`,
		string(kind), id); err != nil {
		return err
	}
	for f, v := range fields {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO entities (kind, id, field, value) VALUES (?, ?, ?, ?)`,
			string(kind), id, f, v); err != nil {
			return err
		}
	}
	return nil
}

// SeedClaim registers a claim, returning its id (generated when empty).
func (s *Store) SeedClaim(ctx context.Context, claimID string) (string, error) {
	if claimID == "" {
		claimID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO claims (id) VALUES (?)`, claimID)
	return claimID, err
}

// SeedCoverage registers an active coverage, returning its id (generated
// when empty).
func (s *Store) SeedCoverage(ctx context.Context, claimID string, c claims.Coverage) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO claim_coverages (id, claim_id, payer_id, subscriber_number, active)
		 VALUES (?, ?, ?, ?, 1)`,
		c.ID, claimID, c.PayerID, c.SubscriberNumber)
	return c.ID, err
}

// SeedLineItem registers an active line item, returning its id (generated
// when empty).
func (s *Store) SeedLineItem(ctx context.Context, claimID string, li claims.LineItem) (string, error) {
	if li.ID == "" {
		li.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO claim_line_items (id, claim_id, proc_code, active)
		 VALUES (?, ?, ?, 1)`,
		li.ID, claimID, li.ProcCode)
	return li.ID, err
}

// SeedQueue registers a claim queue name.
func (s *Store) SeedQueue(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO claim_queues (name) VALUES (?)`, name)
	return err
}
