// Package mutstore is the durable mutation log: an append-only,
// successor-keyed record of commit rewrites backed by SQLite.
package mutstore

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = "1"

// Store implements mutation.Store and mutation.BulkStore on a SQLite
// database. Writes accumulate in a transaction opened lazily by Add and made
// durable by Flush; readers in other processes see nothing until then.
type Store struct {
	db *sql.DB
	tx *sql.Tx
}

// Open creates or opens the mutation log at path. The database runs in WAL
// mode with a single-writer connection pool; opening is idempotent and
// applies the schema on first use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open mutation log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open mutation log: %w", err)
	}

	// SQLite allows one writer at a time; a larger pool just trades
	// SQLITE_BUSY errors for idle connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open mutation log: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("open mutation log: apply schema: %w", err)
	}
	if _, err := db.Exec(
		"INSERT INTO meta (key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO NOTHING",
		schemaVersion,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("open mutation log: record schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// Close flushes any pending writes and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

func (s *Store) querier() interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Get returns the entry whose successor is node, or nil when absent. Absence
// is the normal unrewritten-node case, not an error.
func (s *Store) Get(node mutation.Node) (*mutation.Entry, error) {
	row := s.querier().QueryRow(
		"SELECT succ, preds, split, op, user, time, tz, extra FROM mutation WHERE succ = ?",
		string(node),
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mutation log get %s: %w", node, err)
	}
	return entry, nil
}

// Has reports whether an entry exists for node.
func (s *Store) Has(node mutation.Node) (bool, error) {
	var one int
	err := s.querier().QueryRow(
		"SELECT 1 FROM mutation WHERE succ = ?", string(node),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mutation log has %s: %w", node, err)
	}
	return true, nil
}

// GetSplitHead returns the head node of the split node belongs to.
func (s *Store) GetSplitHead(node mutation.Node) (mutation.Node, bool, error) {
	var head string
	err := s.querier().QueryRow(
		"SELECT head FROM splithead WHERE member = ?", string(node),
	).Scan(&head)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mutation log split head %s: %w", node, err)
	}
	return mutation.Node(head), true, nil
}

// GetSuccessorsSets returns every recorded successor group replacing node, in
// recording order.
func (s *Store) GetSuccessorsSets(node mutation.Node) ([][]mutation.Node, error) {
	// Groups contributed by mid-split entries are covered by the split
	// head's group; reporting both would fabricate divergence.
	rows, err := s.querier().Query(
		`SELECT s.group_nodes FROM successorset s
		 LEFT JOIN splithead sh ON sh.member = s.succ
		 WHERE s.pred = ? AND (sh.head IS NULL OR sh.head = s.succ)
		 ORDER BY s.seq`,
		string(node),
	)
	if err != nil {
		return nil, fmt.Errorf("mutation log successors %s: %w", node, err)
	}
	defer rows.Close()

	var sets [][]mutation.Node
	for rows.Next() {
		var joined string
		if err := rows.Scan(&joined); err != nil {
			return nil, fmt.Errorf("mutation log successors %s: %w", node, err)
		}
		sets = append(sets, splitNodes(joined))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mutation log successors %s: %w", node, err)
	}
	return sets, nil
}

// Add appends an entry to the log inside a lazily opened transaction. The
// entry is invisible to other processes until Flush commits.
func (s *Store) Add(entry *mutation.Entry) error {
	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("mutation log add: begin: %w", err)
		}
		s.tx = tx
	}

	extra := ""
	if len(entry.Extra) > 0 {
		data, err := json.Marshal(entry.Extra)
		if err != nil {
			return fmt.Errorf("mutation log add %s: marshal extra: %w", entry.Succ, err)
		}
		extra = string(data)
	}

	// Re-recording a successor overwrites its row, so replayed batches are
	// harmless.
	if _, err := s.tx.Exec(
		`INSERT INTO mutation (succ, preds, split, op, user, time, tz, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(succ) DO UPDATE SET
		   preds = excluded.preds, split = excluded.split, op = excluded.op,
		   user = excluded.user, time = excluded.time, tz = excluded.tz,
		   extra = excluded.extra`,
		string(entry.Succ), joinNodes(entry.Preds), joinNodes(entry.Split),
		entry.Op, entry.User, entry.Time, entry.Tz, extra,
	); err != nil {
		return fmt.Errorf("mutation log add %s: %w", entry.Succ, err)
	}

	for _, sibling := range entry.Split {
		if _, err := s.tx.Exec(
			`INSERT INTO splithead (member, head) VALUES (?, ?)
			 ON CONFLICT(member) DO UPDATE SET head = excluded.head`,
			string(sibling), string(entry.Succ),
		); err != nil {
			return fmt.Errorf("mutation log add %s: split head: %w", entry.Succ, err)
		}
	}

	group := joinNodes(entry.SuccessorGroup())
	for _, pred := range entry.Preds {
		if _, err := s.tx.Exec(
			`INSERT INTO successorset (pred, seq, succ, group_nodes)
			 SELECT ?1, (SELECT COALESCE(MAX(seq), -1) + 1 FROM successorset WHERE pred = ?1), ?2, ?3
			 WHERE NOT EXISTS (SELECT 1 FROM successorset WHERE pred = ?1 AND succ = ?2)`,
			string(pred), string(entry.Succ), group,
		); err != nil {
			return fmt.Errorf("mutation log add %s: successor set: %w", entry.Succ, err)
		}
	}
	return nil
}

// Flush commits pending writes. A no-op when nothing was added.
func (s *Store) Flush() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mutation log flush: %w", err)
	}
	return nil
}

// Entries returns every entry in the log ordered by successor. Intended for
// inspection tooling, not for traversal.
func (s *Store) Entries() ([]*mutation.Entry, error) {
	rows, err := s.querier().Query(
		"SELECT succ, preds, split, op, user, time, tz, extra FROM mutation ORDER BY succ",
	)
	if err != nil {
		return nil, fmt.Errorf("mutation log entries: %w", err)
	}
	defer rows.Close()

	var entries []*mutation.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("mutation log entries: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mutation log entries: %w", err)
	}
	return entries, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*mutation.Entry, error) {
	var succ, preds, split, op, user, extra string
	var t int64
	var tz int
	if err := row.Scan(&succ, &preds, &split, &op, &user, &t, &tz, &extra); err != nil {
		return nil, err
	}
	entry := &mutation.Entry{
		Succ:  mutation.Node(succ),
		Preds: splitNodes(preds),
		Split: splitNodes(split),
		Op:    op,
		User:  user,
		Time:  t,
		Tz:    tz,
	}
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &entry.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra for %s: %w", succ, err)
		}
	}
	return entry, nil
}

func joinNodes(nodes []mutation.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = string(n)
	}
	return strings.Join(parts, ",")
}

func splitNodes(joined string) []mutation.Node {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	nodes := make([]mutation.Node, len(parts))
	for i, p := range parts {
		nodes[i] = mutation.Node(p)
	}
	return nodes
}
