package storage

const schema = `
-- The 'drafts' table journals the local draft store so unsynced cards survive a restart.
-- seq is assigned by the store and preserves insertion order.
CREATE TABLE IF NOT EXISTS drafts (
    seq INTEGER PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    subject TEXT NOT NULL,
    test TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
`
