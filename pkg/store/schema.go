package store

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Settings: single-row JSON document keyed by a fixed id.
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    document TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Recent artifacts: bounded most-recent-first log, deduped by checksum.
CREATE TABLE IF NOT EXISTS recent_artifacts (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    artifact_id TEXT NOT NULL,
    checksum TEXT NOT NULL,
    title TEXT NOT NULL,
    kind TEXT NOT NULL,
    language TEXT,
    conversation_id TEXT,
    source_url TEXT,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recent_checksum ON recent_artifacts(checksum);

-- Download history: bounded log of completed/failed attempts.
CREATE TABLE IF NOT EXISTS download_history (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    artifact_id TEXT NOT NULL,
    title TEXT NOT NULL,
    filename TEXT NOT NULL,
    kind TEXT NOT NULL,
    checksum TEXT,
    download_id TEXT,
    status TEXT NOT NULL,
    error TEXT,
    at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_artifact ON download_history(artifact_id);
CREATE INDEX IF NOT EXISTS idx_history_at ON download_history(at);
`
