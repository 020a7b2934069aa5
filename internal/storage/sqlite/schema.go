package sqlite

const schema = `
-- Risks table
CREATE TABLE IF NOT EXISTS risks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL CHECK(length(title) <= 100),
    description TEXT NOT NULL CHECK(length(description) <= 500),
    impact INTEGER NOT NULL CHECK(impact >= 1 AND impact <= 5),
    probability INTEGER NOT NULL CHECK(probability >= 1 AND probability <= 5),
    severity TEXT NOT NULL CHECK(severity IN ('low', 'medium', 'high', 'critical')),
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'mitigated', 'accepted')),
    mitigation_plan TEXT NOT NULL DEFAULT '',
    target_date DATETIME,
    owner TEXT NOT NULL DEFAULT '',
    embedding TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    closed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_risks_status ON risks(status);
CREATE INDEX IF NOT EXISTS idx_risks_severity ON risks(severity);
CREATE INDEX IF NOT EXISTS idx_risks_created_at ON risks(created_at);

-- Risk ID counters table
-- Serializes "rk-N" ID generation across concurrent writers
CREATE TABLE IF NOT EXISTS risk_counters (
    prefix TEXT PRIMARY KEY,
    last_id INTEGER NOT NULL DEFAULT 0
);

-- Events table (audit trail)
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    risk_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    actor TEXT NOT NULL,
    old_value TEXT,
    new_value TEXT,
    comment TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (risk_id) REFERENCES risks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_events_risk ON events(risk_id);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);

-- Config table (key/value overrides, e.g. risk_prefix)
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
