package database

// schema is the full DDL for the engine's single database.
// Countries and relations are seeded externally (or via the seed helper);
// budgets, subsidies, decisions and snapshots are written by the engine.
const schema = `
CREATE TABLE IF NOT EXISTS countries (
    iso_code TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    gdp REAL NOT NULL,
    population INTEGER NOT NULL,
    unemployment_rate REAL NOT NULL,
    inflation_rate REAL NOT NULL,
    approval_rating REAL NOT NULL,
    government_type TEXT,
    region TEXT,
    industries_json TEXT NOT NULL DEFAULT '{}',
    gdp_history_json TEXT NOT NULL DEFAULT '{}',
    trading_partners_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS relations (
    country_a TEXT NOT NULL,
    country_b TEXT NOT NULL,
    relation_level REAL NOT NULL,
    last_event TEXT,
    agreements_json TEXT NOT NULL DEFAULT '[]',
    trade_volume REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (country_a, country_b)
);

CREATE TABLE IF NOT EXISTS budgets (
    country_iso TEXT PRIMARY KEY,
    revenue_json TEXT NOT NULL,
    expenses_json TEXT NOT NULL,
    editable_json TEXT NOT NULL DEFAULT '[]',
    debt REAL NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS budget_history (
    id INTEGER PRIMARY KEY,
    country_iso TEXT NOT NULL,
    turn INTEGER NOT NULL,
    total_revenue REAL NOT NULL,
    total_expenditure REAL NOT NULL,
    balance REAL NOT NULL,
    debt REAL NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_budget_history_country ON budget_history(country_iso, turn);

CREATE TABLE IF NOT EXISTS subsidies (
    id TEXT PRIMARY KEY,
    country_iso TEXT NOT NULL,
    sector TEXT NOT NULL,
    percentage REAL NOT NULL,
    duration INTEGER NOT NULL,
    remaining_years INTEGER NOT NULL,
    annual_cost REAL NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subsidies_country ON subsidies(country_iso);

CREATE TABLE IF NOT EXISTS policy_decisions (
    id TEXT PRIMARY KEY,
    country_iso TEXT NOT NULL,
    policy TEXT NOT NULL,
    value REAL NOT NULL,
    target TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_country ON policy_decisions(country_iso, created_at);

CREATE TABLE IF NOT EXISTS calibration_params (
    country_iso TEXT NOT NULL,
    param TEXT NOT NULL,
    value REAL NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (country_iso, param)
);

CREATE TABLE IF NOT EXISTS snapshots (
    country_iso TEXT NOT NULL,
    turn INTEGER NOT NULL,
    state_blob BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (country_iso, turn)
);

CREATE TABLE IF NOT EXISTS game_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
