// Package index implements the Index Table: the single on-disk source of
// truth reconciling the local and remote views of every synchronized path.
// It is a thin CRUD layer — all policy (what instruction a row should carry
// next) lives in the Reconciliation Engine.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/subsyncit/subsyncit/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_index (
	path         TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	depth        INTEGER NOT NULL,
	remote_sha1  TEXT NOT NULL DEFAULT '',
	local_sha1   TEXT NOT NULL DEFAULT '',
	size_mtime   INTEGER NOT NULL DEFAULT 0,
	revision     INTEGER NOT NULL DEFAULT 0,
	instruction  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sync_index_depth ON sync_index(depth);
CREATE INDEX IF NOT EXISTS idx_sync_index_instruction ON sync_index(instruction);
`

// Table is the Index Table, backed by SQLite.
type Table struct {
	conn *sqlx.DB
}

// Open opens (creating if necessary) the index database at path.
func Open(path string) (*Table, error) {
	conn, err := db.Open(db.WithPath(path), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &Table{conn: conn}, nil
}

// Close closes the underlying database connection.
func (t *Table) Close() error {
	if err := t.conn.Close(); err != nil {
		slog.Error("close index table", "error", err)
		return err
	}
	return nil
}

// Get returns the row for path, or nil if no such row exists.
func (t *Table) Get(path string) (*Row, error) {
	var r Row
	err := t.conn.Get(&r,
		`SELECT path, kind, depth, remote_sha1, local_sha1, size_mtime, revision, instruction
		 FROM sync_index WHERE path = ?`, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get index row %s: %w", path, err)
	}
	return &r, nil
}

// Upsert inserts a new row, or updates an existing row's fields wholesale.
func (t *Table) Upsert(r *Row) error {
	r.Depth = Depth(r.Path)
	_, err := t.conn.Exec(`
		INSERT INTO sync_index (path, kind, depth, remote_sha1, local_sha1, size_mtime, revision, instruction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind,
			depth = excluded.depth,
			remote_sha1 = excluded.remote_sha1,
			local_sha1 = excluded.local_sha1,
			size_mtime = excluded.size_mtime,
			revision = excluded.revision,
			instruction = excluded.instruction
	`, r.Path, r.Kind, r.Depth, r.RemoteSHA1, r.LocalSHA1, r.SizeMtime, r.Revision, r.Instruction)
	if err != nil {
		return fmt.Errorf("upsert index row %s: %w", r.Path, err)
	}
	return nil
}

// SetInstruction sets only the instruction field for path, leaving all
// other fields untouched. This is the only mutation event/scanner code is
// allowed to perform directly on an existing row.
func (t *Table) SetInstruction(path string, instr Instruction) error {
	_, err := t.conn.Exec(`UPDATE sync_index SET instruction = ? WHERE path = ?`, instr, path)
	if err != nil {
		return fmt.Errorf("set instruction for %s: %w", path, err)
	}
	return nil
}

// SetRevision updates only the revision field for path.
func (t *Table) SetRevision(path string, revision int64) error {
	_, err := t.conn.Exec(`UPDATE sync_index SET revision = ? WHERE path = ?`, revision, path)
	if err != nil {
		return fmt.Errorf("set revision for %s: %w", path, err)
	}
	return nil
}

// SetShasAndSize records a freshly reconciled file's SHA-1s and size+mtime
// hint, and clears its instruction.
func (t *Table) SetShasAndSize(path, remoteSHA1, localSHA1 string, sizeMtime int64, revision int64) error {
	_, err := t.conn.Exec(`
		UPDATE sync_index
		SET remote_sha1 = ?, local_sha1 = ?, size_mtime = ?, revision = ?, instruction = ''
		WHERE path = ?
	`, remoteSHA1, localSHA1, sizeMtime, revision, path)
	if err != nil {
		return fmt.Errorf("update shas for %s: %w", path, err)
	}
	return nil
}

// Delete removes a row entirely, on successful DELETE_LOCAL/DELETE_REMOTE
// completion.
func (t *Table) Delete(path string) error {
	_, err := t.conn.Exec(`DELETE FROM sync_index WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete index row %s: %w", path, err)
	}
	return nil
}

// ByInstruction returns every row currently carrying the given instruction.
func (t *Table) ByInstruction(instr Instruction) ([]Row, error) {
	var rows []Row
	err := t.conn.Select(&rows,
		`SELECT path, kind, depth, remote_sha1, local_sha1, size_mtime, revision, instruction
		 FROM sync_index WHERE instruction = ? ORDER BY path`, instr)
	if err != nil {
		return nil, fmt.Errorf("query rows by instruction %s: %w", instr, err)
	}
	return rows, nil
}

// UnderPrefixAtDepth returns rows, whatever their instruction, whose path
// has prefix and whose depth is exactly childDepth — with childDepth set to
// Depth(prefix)+1, the direct children of the directory named by prefix. Used by the Merkle walk and by
// create_GET_and_local_delete_instructions_if_needed's Go counterpart to
// gather "candidates known locally" before comparing with a remote listing.
func (t *Table) UnderPrefixAtDepth(prefix string, childDepth int) ([]Row, error) {
	var rows []Row
	err := t.conn.Select(&rows,
		`SELECT path, kind, depth, remote_sha1, local_sha1, size_mtime, revision, instruction
		 FROM sync_index
		 WHERE path LIKE ? AND depth = ?
		 ORDER BY path`, prefix+"%", childDepth)
	if err != nil {
		return nil, fmt.Errorf("query rows under %s: %w", prefix, err)
	}
	return rows, nil
}

// All returns every row in the table. Used for rebuild/diagnostic paths,
// not the hot loop.
func (t *Table) All() ([]Row, error) {
	var rows []Row
	err := t.conn.Select(&rows,
		`SELECT path, kind, depth, remote_sha1, local_sha1, size_mtime, revision, instruction
		 FROM sync_index ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query all index rows: %w", err)
	}
	return rows, nil
}

// Count returns the number of rows in the table.
func (t *Table) Count() (int, error) {
	var n int
	if err := t.conn.Get(&n, `SELECT COUNT(*) FROM sync_index`); err != nil {
		return 0, fmt.Errorf("count index rows: %w", err)
	}
	return n, nil
}
