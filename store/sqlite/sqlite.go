/*
Package sqlite provides the SQLite-backed reference-data store.

PURPOSE:
  Persists the externally maintained reference tables (federal brackets,
  state rules, FICA constants, cost-of-living indices) and the historical
  expense series. The computation packages never touch this directly: the
  API layer loads tables through here and hands the validated structs to
  the pure functions.

KEY TABLES:
  reference_data:   One JSON blob per table kind (federal/states/fica/
                    cost_index), replayed through the factory parsers on
                    read so only validated structs ever leave this package
  expense_history:  One row per (city, category, month_index) observation;
                    append-only - observations are historical facts

INTERFACES IMPLEMENTED:
  expense.HistoryStore: Series and city lookups for the forecaster

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/reloconomics.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  tables, err := store.Tables(ctx)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - factory/loader.go: The parsers applied on every read and write
  - expense/store/memory.go: In-memory HistoryStore for testing
  - api/scenarios.go: Seeds demo data through this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/factory"
	"github.com/reloconomics/relocation-engine/finance"
	"github.com/reloconomics/relocation-engine/tax"
)

// Reference blob kinds.
const (
	KindFederal   = "federal"
	KindStates    = "states"
	KindFica      = "fica"
	KindCostIndex = "cost_index"
)

// Store persists reference tables and expense history in SQLite.
type Store struct {
	db *sql.DB
}

// New creates a store at the given path. Use ":memory:" for tests.
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
	-- Reference tables, one validated JSON blob per kind
	CREATE TABLE IF NOT EXISTS reference_data (
		kind TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Historical expense observations (append-only)
	CREATE TABLE IF NOT EXISTS expense_history (
		city TEXT NOT NULL,
		category TEXT NOT NULL,
		month_index INTEGER NOT NULL,
		month INTEGER NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (city, category, month_index)
	);

	-- Series lookup is the hot path for forecasting
	CREATE INDEX IF NOT EXISTS idx_history_city_category
		ON expense_history(city, category, month_index);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REFERENCE BLOBS
// =============================================================================

// SaveReference stores a raw JSON blob for a kind. The blob is parsed
// first so invalid data never lands in the database.
func (s *Store) SaveReference(ctx context.Context, kind string, raw []byte) error {
	if err := validateBlob(kind, raw); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reference_data (kind, config_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at`,
		kind, string(raw), time.Now().UTC().Format(time.RFC3339))
	return err
}

func validateBlob(kind string, raw []byte) error {
	switch kind {
	case KindFederal:
		_, err := factory.ParseFederalTable(raw)
		return err
	case KindStates:
		_, err := factory.ParseStateTable(raw)
		return err
	case KindFica:
		_, err := factory.ParseFicaConstants(raw)
		return err
	case KindCostIndex:
		_, err := factory.ParseCostIndexTable(raw)
		return err
	default:
		return &finance.InvalidInputError{Field: "kind", Reason: "unknown reference kind: " + kind}
	}
}

func (s *Store) loadReference(ctx context.Context, kind string) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM reference_data WHERE kind = ?`, kind).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, &finance.NotFoundError{Kind: "reference", Key: kind}
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// FederalTable loads and parses the federal bracket table.
func (s *Store) FederalTable(ctx context.Context) (tax.FederalTable, error) {
	raw, err := s.loadReference(ctx, KindFederal)
	if err != nil {
		return nil, err
	}
	return factory.ParseFederalTable(raw)
}

// StateTable loads and parses the state rule table.
func (s *Store) StateTable(ctx context.Context) (tax.StateTable, error) {
	raw, err := s.loadReference(ctx, KindStates)
	if err != nil {
		return nil, err
	}
	return factory.ParseStateTable(raw)
}

// FicaConstants loads and parses the FICA constants.
func (s *Store) FicaConstants(ctx context.Context) (tax.FicaConstants, error) {
	raw, err := s.loadReference(ctx, KindFica)
	if err != nil {
		return tax.FicaConstants{}, err
	}
	return factory.ParseFicaConstants(raw)
}

// CostIndexTable loads and parses the cost-of-living indices.
func (s *Store) CostIndexTable(ctx context.Context) (expense.CostIndexTable, error) {
	raw, err := s.loadReference(ctx, KindCostIndex)
	if err != nil {
		return expense.CostIndexTable{}, err
	}
	return factory.ParseCostIndexTable(raw)
}

// Tables loads everything the tax calculator needs in one call.
func (s *Store) Tables(ctx context.Context) (tax.Tables, error) {
	federal, err := s.FederalTable(ctx)
	if err != nil {
		return tax.Tables{}, err
	}
	states, err := s.StateTable(ctx)
	if err != nil {
		return tax.Tables{}, err
	}
	fica, err := s.FicaConstants(ctx)
	if err != nil {
		return tax.Tables{}, err
	}
	return tax.Tables{Federal: federal, States: states, Fica: fica}, nil
}

// =============================================================================
// EXPENSE HISTORY
// =============================================================================

// AddRecords appends historical observations. Amounts persist as decimal
// strings so nothing is lost to float rounding.
func (s *Store) AddRecords(ctx context.Context, records []expense.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expense_history (city, category, month_index, month, amount)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.City, string(r.Category), r.MonthIndex, int(r.Month), r.Amount.String())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Series implements expense.HistoryStore.
func (s *Store) Series(ctx context.Context, city string, category expense.Category) (expense.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT month_index, month, amount FROM expense_history
		WHERE city = ? AND category = ?
		ORDER BY month_index ASC`, city, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series expense.Series
	for rows.Next() {
		var (
			monthIndex int
			month      int
			amount     string
		)
		if err := rows.Scan(&monthIndex, &month, &amount); err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount for %s/%s: %w", city, category, err)
		}
		series = append(series, expense.Record{
			City:       city,
			Category:   category,
			MonthIndex: monthIndex,
			Month:      time.Month(month),
			Amount:     value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Distinguish "no data for this category" from "no such city"
	if len(series) == 0 {
		known, err := s.hasCity(ctx, city)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, &finance.NotFoundError{Kind: "city", Key: city}
		}
	}
	return series, nil
}

// Cities implements expense.HistoryStore.
func (s *Store) Cities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT city FROM expense_history`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(cities)
	return cities, nil
}

func (s *Store) hasCity(ctx context.Context, city string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM expense_history WHERE city = ?`, city).Scan(&count)
	return count > 0, err
}

// Reset clears all data. Used by demo scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM reference_data`,
		`DELETE FROM expense_history`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time check that Store implements expense.HistoryStore
var _ expense.HistoryStore = (*Store)(nil)
