package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Logical collection names. Physical tables carry a generation suffix;
// bumping a generation allocates a fresh table and leaves the old one in
// place so prior deployments' data is never silently aliased.
const (
	nsProposals  = "proposals"
	nsWorkers    = "workers"
	nsCodehashes = "codehashes"
	nsBindings   = "bindings"
	nsMeta       = "meta"
)

// generations records the current schema generation per logical collection.
// proposals is at v2: v1 predates the worker-submission list.
var generations = map[string]int{
	nsProposals:  2,
	nsWorkers:    1,
	nsCodehashes: 1,
	nsBindings:   1,
	nsMeta:       1,
}

const (
	metaOwner             = "owner"
	metaCurrentProposalID = "current_proposal_id"
	metaManifesto         = "manifesto"
)

func physical(logical string) string {
	return fmt.Sprintf("%s_v%d", logical, generations[logical])
}

// DB is the SQLite-backed Store.
type DB struct {
	conn *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens (creating if needed) the ledger database. It fails if the
// recorded namespace mapping points at a different generation than this
// build expects; that situation requires an explicit Reinitialize.
func Open(dbPath string) (*DB, error) {
	db, err := openRaw(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.initNamespaces(false); err != nil {
		db.conn.Close()
		return nil, err
	}
	return db, nil
}

func openRaw(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	return &DB{conn: conn}, nil
}

// OpenAndReinitialize opens the database and re-points stale namespaces at
// their current generation instead of failing. Use after deploying code
// whose collection shapes changed; see Reinitialize.
func OpenAndReinitialize(dbPath string, currentProposalID uint64) (*DB, error) {
	db, err := openRaw(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Reinitialize(currentProposalID); err != nil {
		db.conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Reinitialize re-points every logical collection at its current-generation
// physical table, creating fresh tables where the shape changed, and seeds
// the proposal id counter. Prior-generation tables are left untouched.
// Idempotent; intended for use after deploying structurally-changed code.
func (db *DB) Reinitialize(currentProposalID uint64) error {
	if err := db.initNamespaces(true); err != nil {
		return err
	}
	return db.putMeta(metaCurrentProposalID, strconv.FormatUint(currentProposalID, 10))
}

func (db *DB) initNamespaces(repoint bool) error {
	const nsTable = `CREATE TABLE IF NOT EXISTS namespaces (
		logical  TEXT PRIMARY KEY,
		physical TEXT NOT NULL
	)`
	if _, err := db.conn.Exec(nsTable); err != nil {
		return fmt.Errorf("creating namespaces table: %w", err)
	}

	for logical := range generations {
		want := physical(logical)

		var got string
		err := db.conn.QueryRow(
			`SELECT physical FROM namespaces WHERE logical = ?`, logical).Scan(&got)
		switch {
		case err == sql.ErrNoRows:
			if _, err := db.conn.Exec(
				`INSERT INTO namespaces (logical, physical) VALUES (?, ?)`, logical, want); err != nil {
				return fmt.Errorf("recording namespace %s: %w", logical, err)
			}
		case err != nil:
			return fmt.Errorf("reading namespace %s: %w", logical, err)
		case got != want && !repoint:
			return fmt.Errorf(
				"collection %s is stored under namespace %s but this build expects %s; run reinitialize",
				logical, got, want)
		case got != want:
			if _, err := db.conn.Exec(
				`UPDATE namespaces SET physical = ? WHERE logical = ?`, want, logical); err != nil {
				return fmt.Errorf("repointing namespace %s: %w", logical, err)
			}
		}

		if err := db.createCollection(logical, want); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) createCollection(logical, table string) error {
	var ddl string
	switch logical {
	case nsProposals:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id   INTEGER PRIMARY KEY,
			data TEXT NOT NULL
		)`, table)
	case nsWorkers:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			worker_id TEXT PRIMARY KEY,
			data      TEXT NOT NULL
		)`, table)
	case nsCodehashes:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			codehash TEXT PRIMARY KEY
		)`, table)
	case nsBindings:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			account_id TEXT PRIMARY KEY,
			checksum   TEXT NOT NULL,
			codehash   TEXT NOT NULL
		)`, table)
	case nsMeta:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, table)
	default:
		return fmt.Errorf("unknown logical collection %s", logical)
	}
	if _, err := db.conn.Exec(ddl); err != nil {
		return fmt.Errorf("creating collection %s: %w", table, err)
	}
	return nil
}

func (db *DB) putMeta(key, value string) error {
	query := fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (key, value) VALUES (?, ?)`, physical(nsMeta))
	if _, err := db.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("writing meta %s: %w", key, err)
	}
	return nil
}
