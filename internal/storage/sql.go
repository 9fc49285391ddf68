package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    cam_id      TEXT NOT NULL,
    config      TEXT
);

CREATE TABLE IF NOT EXISTS frames (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   INTEGER NOT NULL REFERENCES sessions(id),
    frame_id     TEXT NOT NULL,
    timestamp    TEXT NOT NULL,
    object_count INTEGER NOT NULL,
    payload      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id);
`

const insertSessionSQL = `
INSERT INTO sessions (cam_id, config) VALUES (?, ?)`

const insertFrameSQL = `
INSERT INTO frames (session_id, frame_id, timestamp, object_count, payload)
VALUES (?, ?, ?, ?, ?)`

const countFramesSQL = `
SELECT COUNT(*) FROM frames WHERE session_id = ?`
