package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS receipts (
    receipt_id             TEXT PRIMARY KEY,
    account_id             TEXT NOT NULL,
    tokens_before          INTEGER NOT NULL DEFAULT 0,
    tokens_after           INTEGER NOT NULL DEFAULT 0,
    kwh_before             REAL NOT NULL DEFAULT 0,
    kwh_after              REAL NOT NULL DEFAULT 0,
    co2_g_before           REAL NOT NULL DEFAULT 0,
    co2_g_after            REAL NOT NULL DEFAULT 0,
    quality_score          REAL,
    model                  TEXT NOT NULL DEFAULT '',
    region                 TEXT NOT NULL DEFAULT '',
    optimizations_applied  TEXT NOT NULL DEFAULT '[]',
    created_at             TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_account_created ON receipts(account_id, created_at DESC);
`
