package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// sqliteMigrations is an ordered list of SQL statements to run on the local
// database. It holds the catalog, inquiries, snapshots and auth tables.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id              TEXT    PRIMARY KEY,
		title           TEXT    NOT NULL,
		description     TEXT    NOT NULL DEFAULT '',
		price           INTEGER NOT NULL DEFAULT 0,
		location        TEXT    NOT NULL DEFAULT '',
		beds            INTEGER NOT NULL DEFAULT 0,
		baths           REAL    NOT NULL DEFAULT 0,
		sqft            INTEGER NOT NULL DEFAULT 0,
		parking         INTEGER NOT NULL DEFAULT 0,
		beachfront      INTEGER NOT NULL DEFAULT 0,
		type            TEXT    NOT NULL DEFAULT '',
		images          TEXT    NOT NULL DEFAULT '[]',
		thumbnail_image TEXT    NOT NULL DEFAULT '',
		sort_order      INTEGER NOT NULL DEFAULT 0,
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_sort_order ON properties(sort_order)`,
	`CREATE TABLE IF NOT EXISTS property_types (
		id         TEXT     PRIMARY KEY,
		name       TEXT     NOT NULL,
		sort_order INTEGER  NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inquiries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		property_id TEXT    NOT NULL,
		name        TEXT    NOT NULL,
		email       TEXT    NOT NULL,
		phone       TEXT    NOT NULL DEFAULT '',
		message     TEXT    NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_property ON inquiries(property_id)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT     PRIMARY KEY,
		value      TEXT     NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		email           TEXT    NOT NULL,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		email        TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS authorized_users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		email      TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// sqliteColumns are columns added to existing SQLite tables after their
// first release. Each is applied only when missing.
var sqliteColumns = []struct {
	table, column, definition string
}{
	{"properties", "map_location", "TEXT"},
	{"properties", "features", "TEXT NOT NULL DEFAULT '[]'"},
	{"passkey_credentials", "last_used_at", "DATETIME"},
}

// postgresMigrations creates the catalog tables on a hosted Postgres.
var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id              TEXT             PRIMARY KEY,
		title           TEXT             NOT NULL,
		description     TEXT             NOT NULL DEFAULT '',
		price           BIGINT           NOT NULL DEFAULT 0,
		location        TEXT             NOT NULL DEFAULT '',
		beds            INTEGER          NOT NULL DEFAULT 0,
		baths           DOUBLE PRECISION NOT NULL DEFAULT 0,
		sqft            INTEGER          NOT NULL DEFAULT 0,
		parking         BOOLEAN          NOT NULL DEFAULT FALSE,
		beachfront      BOOLEAN          NOT NULL DEFAULT FALSE,
		type            TEXT             NOT NULL DEFAULT '',
		images          TEXT             NOT NULL DEFAULT '[]',
		thumbnail_image TEXT             NOT NULL DEFAULT '',
		sort_order      INTEGER          NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ      NOT NULL,
		updated_at      TIMESTAMPTZ      NOT NULL,
		map_location    TEXT,
		features        TEXT             NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_sort_order ON properties(sort_order)`,
	`CREATE TABLE IF NOT EXISTS property_types (
		id         TEXT        PRIMARY KEY,
		name       TEXT        NOT NULL,
		sort_order INTEGER     NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// mysqlMigrations creates the catalog tables on MySQL.
var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS properties (
		id              VARCHAR(64)  PRIMARY KEY,
		title           VARCHAR(255) NOT NULL,
		description     TEXT         NOT NULL,
		price           BIGINT       NOT NULL DEFAULT 0,
		location        VARCHAR(255) NOT NULL DEFAULT '',
		beds            INT          NOT NULL DEFAULT 0,
		baths           DOUBLE       NOT NULL DEFAULT 0,
		sqft            INT          NOT NULL DEFAULT 0,
		parking         BOOLEAN      NOT NULL DEFAULT FALSE,
		beachfront      BOOLEAN      NOT NULL DEFAULT FALSE,
		type            VARCHAR(128) NOT NULL DEFAULT '',
		images          TEXT         NOT NULL,
		thumbnail_image TEXT         NOT NULL,
		sort_order      INT          NOT NULL DEFAULT 0,
		created_at      DATETIME(6)  NOT NULL,
		updated_at      DATETIME(6)  NOT NULL,
		map_location    TEXT,
		features        TEXT         NOT NULL,
		INDEX idx_properties_sort_order (sort_order)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS property_types (
		id         VARCHAR(64)  PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		sort_order INT          NOT NULL DEFAULT 0,
		created_at DATETIME(6)  NOT NULL
	) CHARACTER SET utf8mb4`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB, migrations []string) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func migrateColumns(db *sql.DB) error {
	for _, cm := range sqliteColumns {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}
	return nil
}

// addColumnIfNotExists adds a column to a SQLite table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
