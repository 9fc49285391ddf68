// Package storage records simulated frames into a per-run SQLite session so
// a test run against the backend can be replayed or audited afterwards.
// Recording is opt-in; the simulators run stateless by default.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Journal appends emitted frames to a SQLite database. The connection opens
// lazily on first use and the schema is created on open.
type Journal struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	sessionID int64

	closeOnce sync.Once
	closeErr  error
}

// NewJournal creates a journal backed by the database at dbPath. The file is
// created on first write.
func NewJournal(dbPath string) *Journal {
	return &Journal{dbPath: dbPath}
}

func (j *Journal) getDB() (*sql.DB, error) {
	j.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", j.dbPath))
		if err != nil {
			j.dbErr = fmt.Errorf("opening journal database: %w", err)
			return
		}
		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			j.dbErr = fmt.Errorf("initializing journal schema: %w", err)
			return
		}
		j.db = db
	})
	return j.db, j.dbErr
}

// Begin opens a new recording session for the given camera. The run
// configuration is stored alongside for later inspection; it may be any
// JSON-serializable value.
func (j *Journal) Begin(ctx context.Context, camID string, config any) (int64, error) {
	db, err := j.getDB()
	if err != nil {
		return 0, err
	}

	var configData sql.NullString
	if config != nil {
		p, err := json.Marshal(config)
		if err != nil {
			return 0, fmt.Errorf("marshaling session config: %w", err)
		}
		configData = sql.NullString{String: string(p), Valid: true}
	}

	result, err := db.ExecContext(ctx, insertSessionSQL, camID, configData)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}
	if j.sessionID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting session ID: %w", err)
	}
	return j.sessionID, nil
}

// RecordFrame appends one emitted frame to the current session. Begin must
// have been called first.
func (j *Journal) RecordFrame(ctx context.Context, frameID, timestamp string, objectCount int, payload []byte) error {
	if j.sessionID == 0 {
		return fmt.Errorf("recording frame: no open session")
	}
	db, err := j.getDB()
	if err != nil {
		return err
	}

	if _, err = db.ExecContext(ctx, insertFrameSQL, j.sessionID, frameID, timestamp, objectCount, string(payload)); err != nil {
		return fmt.Errorf("inserting frame: %w", err)
	}
	return nil
}

// FrameCount reports how many frames a session holds.
func (j *Journal) FrameCount(ctx context.Context, sessionID int64) (int, error) {
	db, err := j.getDB()
	if err != nil {
		return 0, err
	}

	var count int
	if err = db.QueryRowContext(ctx, countFramesSQL, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting frames: %w", err)
	}
	return count, nil
}

// Close releases the database. It is safe to call multiple times.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() {
		if j.db != nil {
			j.closeErr = j.db.Close()
		}
	})
	return j.closeErr
}
