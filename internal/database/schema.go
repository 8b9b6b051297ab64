package database

// Schema defines the results database layout: a content-addressed cache of
// coupling matrices and a log of completed geometry runs. Both tables use
// IF NOT EXISTS guards so Migrate can run on every startup.
const Schema = `
-- Coupling matrix cache, keyed by a hash of the full request
-- (positions, wavenumber, linewidth, polarization). Values are
-- msgpack-encoded matrices and can always be recomputed.
CREATE TABLE IF NOT EXISTS coupling_cache (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_coupling_cache_expires
    ON coupling_cache(expires_at);

-- Completed runs: sampled geometry plus the coupling matrices computed
-- from it. Positions and matrices are msgpack blobs.
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    created_at   INTEGER NOT NULL,
    method       TEXT NOT NULL,
    atom_count   INTEGER NOT NULL,
    radius       REAL NOT NULL,
    wavenumber   REAL NOT NULL,
    gamma        REAL NOT NULL,
    q            INTEGER NOT NULL,
    seed         INTEGER NOT NULL,
    positions    BLOB NOT NULL,
    shift        BLOB NOT NULL,
    decay        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at
    ON runs(created_at);

CREATE INDEX IF NOT EXISTS idx_runs_method
    ON runs(method);
`
