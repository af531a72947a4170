// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/ingestlog/ingestlog.go
// Summary: Optional SQLite journal of per-batch ingestion statistics.
//
// The journal records numbers only — batch sizes, byte volume, cumulative
// drops — never command content, so a restarted process starts from a blank
// canvas as the protocol requires. Writes are batched on a background
// goroutine so the reader goroutine never waits on disk.

package ingestlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/framegrace/sketchwire/protocol"
)

// Config holds journal tuning knobs.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of entries to accumulate before flushing.
	// Default: 64
	BatchSize int

	// BatchTimeout is how long to wait before flushing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async journal channel.
	// Default: 256
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults for dbPath.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     64,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 256,
	}
}

type entry struct {
	seq      uint64
	at       time.Time
	commands int
	bytes    int
	dropped  uint64
}

// Record is one journal row as read back by Recent.
type Record struct {
	Seq      uint64
	At       time.Time
	Commands int
	Bytes    int
	Dropped  uint64
}

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seq INTEGER NOT NULL,             -- batch sequence within the run
    committed_at INTEGER NOT NULL,    -- UnixNano
    commands INTEGER NOT NULL,
    bytes INTEGER NOT NULL,
    dropped INTEGER NOT NULL          -- cumulative drops at commit time
);

CREATE INDEX IF NOT EXISTS idx_batches_committed_at ON batches(committed_at);
`

// Journal is a protocol.BatchObserver persisting batch statistics.
type Journal struct {
	config Config
	db     *sql.DB

	batchChan chan entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}
}

// Open creates or opens the journal database and starts the background
// writer.
func Open(dbPath string) (*Journal, error) {
	return OpenWithConfig(DefaultConfig(dbPath))
}

// OpenWithConfig opens a journal with custom tuning.
func OpenWithConfig(config Config) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(
		"INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	j := &Journal{
		config:    config,
		db:        db,
		batchChan: make(chan entry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go j.writer()
	return j, nil
}

// BatchCommitted implements protocol.BatchObserver. When the journal channel
// is full the entry is dropped; the journal must never stall ingestion.
func (j *Journal) BatchCommitted(info protocol.BatchInfo) {
	e := entry{
		seq:      info.Seq,
		at:       time.Now(),
		commands: info.Commands,
		bytes:    info.Bytes,
		dropped:  info.Dropped,
	}
	select {
	case j.batchChan <- e:
	default:
	}
}

// Flush blocks until all queued entries are written.
func (j *Journal) Flush() {
	done := make(chan struct{})
	select {
	case j.flushCh <- done:
		<-done
	case <-j.doneCh:
	}
}

// Close flushes pending entries and closes the database.
func (j *Journal) Close() error {
	close(j.stopCh)
	<-j.doneCh
	return j.db.Close()
}

// Recent returns up to limit journal rows, newest first.
func (j *Journal) Recent(limit int) ([]Record, error) {
	rows, err := j.db.Query(
		"SELECT seq, committed_at, commands, bytes, dropped FROM batches ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var nanos int64
		if err := rows.Scan(&r.Seq, &nanos, &r.Commands, &r.Bytes, &r.Dropped); err != nil {
			return nil, err
		}
		r.At = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// writer drains the channel into transactions, flushing on size, timeout,
// explicit Flush, and shutdown.
func (j *Journal) writer() {
	defer close(j.doneCh)

	pending := make([]entry, 0, j.config.BatchSize)
	timer := time.NewTimer(j.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := j.insert(pending); err != nil {
			debugLog.Printf("journal write failed: %v", err)
		}
		pending = pending[:0]
	}

	for {
		select {
		case e := <-j.batchChan:
			pending = append(pending, e)
			if len(pending) >= j.config.BatchSize {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(j.config.BatchTimeout)
		case done := <-j.flushCh:
			for {
				select {
				case e := <-j.batchChan:
					pending = append(pending, e)
					continue
				default:
				}
				break
			}
			flush()
			close(done)
		case <-j.stopCh:
			for {
				select {
				case e := <-j.batchChan:
					pending = append(pending, e)
					continue
				default:
				}
				break
			}
			flush()
			return
		}
	}
}

func (j *Journal) insert(entries []entry) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO batches (seq, committed_at, commands, bytes, dropped) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.seq, e.at.UnixNano(), e.commands, e.bytes, e.dropped); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

var _ protocol.BatchObserver = (*Journal)(nil)
