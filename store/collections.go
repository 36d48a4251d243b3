package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shadeboard/coordinator/x/accessctl"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/workers"
)

// PutOwner persists the admin account.
func (db *DB) PutOwner(owner string) error {
	return db.putMeta(metaOwner, owner)
}

// PutManifesto persists the shared policy document.
func (db *DB) PutManifesto(m proposal.Manifesto) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifesto: %w", err)
	}
	return db.putMeta(metaManifesto, string(data))
}

// CreateProposal inserts a new proposal and advances the persisted id
// counter in one transaction.
func (db *DB) CreateProposal(id uint64, p *proposal.Proposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding proposal %d: %w", id, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	insert := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, physical(nsProposals))
	if _, err := tx.Exec(insert, id, string(data)); err != nil {
		return fmt.Errorf("inserting proposal %d: %w", id, err)
	}

	counter := fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (key, value) VALUES (?, ?)`, physical(nsMeta))
	if _, err := tx.Exec(counter, metaCurrentProposalID, strconv.FormatUint(id, 10)); err != nil {
		return fmt.Errorf("advancing proposal counter: %w", err)
	}

	return tx.Commit()
}

// PutProposal replaces the stored record for id.
func (db *DB) PutProposal(id uint64, p *proposal.Proposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding proposal %d: %w", id, err)
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, data) VALUES (?, ?)`, physical(nsProposals))
	if _, err := db.conn.Exec(query, id, string(data)); err != nil {
		return fmt.Errorf("storing proposal %d: %w", id, err)
	}
	return nil
}

// DeleteProposal removes the stored record for id.
func (db *DB) DeleteProposal(id uint64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, physical(nsProposals))
	if _, err := db.conn.Exec(query, id); err != nil {
		return fmt.Errorf("deleting proposal %d: %w", id, err)
	}
	return nil
}

// PutWorker replaces the registry entry for w.WorkerID.
func (db *DB) PutWorker(w workers.RegisteredWorker) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding worker %s: %w", w.WorkerID, err)
	}
	query := fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (worker_id, data) VALUES (?, ?)`, physical(nsWorkers))
	if _, err := db.conn.Exec(query, w.WorkerID, string(data)); err != nil {
		return fmt.Errorf("storing worker %s: %w", w.WorkerID, err)
	}
	return nil
}

// DeleteWorker removes the registry entry for workerID.
func (db *DB) DeleteWorker(workerID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE worker_id = ?`, physical(nsWorkers))
	if _, err := db.conn.Exec(query, workerID); err != nil {
		return fmt.Errorf("deleting worker %s: %w", workerID, err)
	}
	return nil
}

// PutCodehash adds codehash to the approved set.
func (db *DB) PutCodehash(codehash string) error {
	query := fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (codehash) VALUES (?)`, physical(nsCodehashes))
	if _, err := db.conn.Exec(query, codehash); err != nil {
		return fmt.Errorf("storing codehash: %w", err)
	}
	return nil
}

// DeleteCodehash removes codehash from the approved set.
func (db *DB) DeleteCodehash(codehash string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE codehash = ?`, physical(nsCodehashes))
	if _, err := db.conn.Exec(query, codehash); err != nil {
		return fmt.Errorf("deleting codehash: %w", err)
	}
	return nil
}

// PutBinding replaces the coordinator binding for accountID.
func (db *DB) PutBinding(accountID string, b accessctl.Binding) error {
	query := fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (account_id, checksum, codehash) VALUES (?, ?, ?)`,
		physical(nsBindings))
	if _, err := db.conn.Exec(query, accountID, b.Checksum, b.Codehash); err != nil {
		return fmt.Errorf("storing binding for %s: %w", accountID, err)
	}
	return nil
}

// Load reads the full persisted state.
func (db *DB) Load() (*Snapshot, error) {
	snap := &Snapshot{
		Proposals: make(map[uint64]*proposal.Proposal),
		Bindings:  make(map[string]accessctl.Binding),
	}

	if err := db.loadMeta(snap); err != nil {
		return nil, err
	}
	if err := db.loadProposals(snap); err != nil {
		return nil, err
	}
	if err := db.loadWorkers(snap); err != nil {
		return nil, err
	}
	if err := db.loadCodehashes(snap); err != nil {
		return nil, err
	}
	if err := db.loadBindings(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (db *DB) loadMeta(snap *Snapshot) error {
	rows, err := db.conn.Query(fmt.Sprintf(`SELECT key, value FROM %s`, physical(nsMeta)))
	if err != nil {
		return fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scanning meta row: %w", err)
		}
		switch key {
		case metaOwner:
			snap.Owner = value
		case metaCurrentProposalID:
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("parsing proposal counter: %w", err)
			}
			snap.CurrentProposalID = id
		case metaManifesto:
			var m proposal.Manifesto
			if err := json.Unmarshal([]byte(value), &m); err != nil {
				return fmt.Errorf("decoding manifesto: %w", err)
			}
			snap.Manifesto = &m
		}
	}
	return rows.Err()
}

func (db *DB) loadProposals(snap *Snapshot) error {
	rows, err := db.conn.Query(
		fmt.Sprintf(`SELECT id, data FROM %s ORDER BY id ASC`, physical(nsProposals)))
	if err != nil {
		return fmt.Errorf("reading proposals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uint64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scanning proposal row: %w", err)
		}
		var p proposal.Proposal
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return fmt.Errorf("decoding proposal %d: %w", id, err)
		}
		snap.Proposals[id] = &p
	}
	return rows.Err()
}

func (db *DB) loadWorkers(snap *Snapshot) error {
	rows, err := db.conn.Query(
		fmt.Sprintf(`SELECT data FROM %s ORDER BY worker_id ASC`, physical(nsWorkers)))
	if err != nil {
		return fmt.Errorf("reading workers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scanning worker row: %w", err)
		}
		var w workers.RegisteredWorker
		if err := json.Unmarshal([]byte(data), &w); err != nil {
			return fmt.Errorf("decoding worker: %w", err)
		}
		snap.Workers = append(snap.Workers, w)
	}
	return rows.Err()
}

func (db *DB) loadCodehashes(snap *Snapshot) error {
	rows, err := db.conn.Query(
		fmt.Sprintf(`SELECT codehash FROM %s`, physical(nsCodehashes)))
	if err != nil {
		return fmt.Errorf("reading codehashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return fmt.Errorf("scanning codehash row: %w", err)
		}
		snap.Codehashes = append(snap.Codehashes, ch)
	}
	return rows.Err()
}

func (db *DB) loadBindings(snap *Snapshot) error {
	rows, err := db.conn.Query(
		fmt.Sprintf(`SELECT account_id, checksum, codehash FROM %s`, physical(nsBindings)))
	if err != nil {
		return fmt.Errorf("reading bindings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var account, checksum, codehash string
		if err := rows.Scan(&account, &checksum, &codehash); err != nil {
			return fmt.Errorf("scanning binding row: %w", err)
		}
		snap.Bindings[account] = accessctl.Binding{Checksum: checksum, Codehash: codehash}
	}
	return rows.Err()
}
