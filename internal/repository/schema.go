package repository

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS finflow;

CREATE TABLE IF NOT EXISTS finflow.users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS finflow.obligations (
    id           BIGSERIAL PRIMARY KEY,
    owner_id     BIGINT NOT NULL REFERENCES finflow.users(id) ON DELETE CASCADE,
    name         TEXT NOT NULL,
    amount_cents BIGINT NOT NULL,
    category     TEXT NOT NULL,
    day_of_month INTEGER NOT NULL CHECK (day_of_month BETWEEN 1 AND 31),
    kind         TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
    active       BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS finflow.ledger_entries (
    id            BIGSERIAL PRIMARY KEY,
    owner_id      BIGINT NOT NULL REFERENCES finflow.users(id) ON DELETE CASCADE,
    entry_date    DATE NOT NULL,
    kind          TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
    category      TEXT NOT NULL,
    subcategory   TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    amount_cents  BIGINT NOT NULL,
    account       TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL CHECK (status IN ('settled', 'pending')),
    obligation_id BIGINT REFERENCES finflow.obligations(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_owner_date ON finflow.ledger_entries(owner_id, entry_date);
CREATE INDEX IF NOT EXISTS idx_ledger_obligation ON finflow.ledger_entries(obligation_id);

CREATE TABLE IF NOT EXISTS finflow.cards (
    id          BIGSERIAL PRIMARY KEY,
    owner_id    BIGINT NOT NULL REFERENCES finflow.users(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    closing_day INTEGER NOT NULL CHECK (closing_day BETWEEN 1 AND 31),
    due_day     INTEGER NOT NULL CHECK (due_day BETWEEN 1 AND 31)
);

CREATE TABLE IF NOT EXISTS finflow.installment_charges (
    id                 BIGSERIAL PRIMARY KEY,
    owner_id           BIGINT NOT NULL REFERENCES finflow.users(id) ON DELETE CASCADE,
    card_id            BIGINT NOT NULL REFERENCES finflow.cards(id) ON DELETE CASCADE,
    batch_id           TEXT NOT NULL,
    purchase_date      DATE NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    category           TEXT NOT NULL,
    amount_cents       BIGINT NOT NULL,
    installment_index  INTEGER NOT NULL,
    installment_count  INTEGER NOT NULL,
    statement_period   DATE NOT NULL,
    CHECK (installment_index BETWEEN 1 AND installment_count)
);

CREATE INDEX IF NOT EXISTS idx_charges_batch ON finflow.installment_charges(owner_id, batch_id);

CREATE TABLE IF NOT EXISTS finflow.statement_statuses (
    owner_id         BIGINT NOT NULL REFERENCES finflow.users(id) ON DELETE CASCADE,
    card_id          BIGINT NOT NULL REFERENCES finflow.cards(id) ON DELETE CASCADE,
    statement_period DATE NOT NULL,
    status           TEXT NOT NULL,
    paid_cents       BIGINT NOT NULL DEFAULT 0,
    paid_date        DATE,
    PRIMARY KEY (owner_id, card_id, statement_period)
);

CREATE TABLE IF NOT EXISTS finflow.budget_goals (
    owner_id     BIGINT NOT NULL REFERENCES finflow.users(id) ON DELETE CASCADE,
    category     TEXT NOT NULL,
    year         INTEGER NOT NULL,
    month        INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    target_cents BIGINT NOT NULL,
    PRIMARY KEY (owner_id, category, year, month)
);
`
