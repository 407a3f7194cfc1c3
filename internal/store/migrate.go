package store

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS administrators (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(80)  NOT NULL UNIQUE,
		password_hash VARCHAR(128) NOT NULL,
		email         VARCHAR(120) NOT NULL UNIQUE,
		created_at    TIMESTAMP    NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(120) NOT NULL,
		description TEXT,
		start_time  TIMESTAMP    NOT NULL,
		end_time    TIMESTAMP    NOT NULL,
		location    VARCHAR(120),
		created_by  BIGINT       NOT NULL REFERENCES administrators(id),
		created_at  TIMESTAMP    NOT NULL DEFAULT NOW(),
		qr_code_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id                BIGSERIAL PRIMARY KEY,
		student_id_number VARCHAR(80)  NOT NULL UNIQUE,
		name              VARCHAR(120) NOT NULL,
		email             VARCHAR(120) UNIQUE,
		department        VARCHAR(120),
		birthday          DATE,
		unit              VARCHAR(120),
		title             VARCHAR(120),
		created_at        TIMESTAMP    NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS check_ins (
		id              BIGSERIAL PRIMARY KEY,
		activity_id     BIGINT      NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		student_id      BIGINT      NOT NULL REFERENCES students(id),
		check_in_time   TIMESTAMP   NOT NULL DEFAULT NOW(),
		check_in_method VARCHAR(50) NOT NULL DEFAULT 'QR_CODE',
		CONSTRAINT uq_check_ins_activity_student UNIQUE (activity_id, student_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_created_by ON activities(created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_check_ins_student ON check_ins(student_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS administrators (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		email         TEXT     NOT NULL UNIQUE,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT     NOT NULL,
		description TEXT,
		start_time  DATETIME NOT NULL,
		end_time    DATETIME NOT NULL,
		location    TEXT,
		created_by  INTEGER  NOT NULL REFERENCES administrators(id),
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		qr_code_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id_number TEXT     NOT NULL UNIQUE,
		name              TEXT     NOT NULL,
		email             TEXT     UNIQUE,
		department        TEXT,
		birthday          DATE,
		unit              TEXT,
		title             TEXT,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS check_ins (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		activity_id     INTEGER  NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		student_id      INTEGER  NOT NULL REFERENCES students(id),
		check_in_time   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		check_in_method TEXT     NOT NULL DEFAULT 'QR_CODE',
		UNIQUE (activity_id, student_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_created_by ON activities(created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_check_ins_student ON check_ins(student_id)`,
}

// Migrate creates the schema if it does not exist yet. It is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if d.Driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
