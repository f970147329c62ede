package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schema is written once; column types that differ between postgres and
// sqlite are spelled as {{placeholders}}.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id {{pk}},
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	created_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id {{pk}},
	user_id {{ref}} NOT NULL UNIQUE REFERENCES users(id),
	name TEXT NOT NULL,
	sex TEXT NOT NULL,
	age INTEGER NOT NULL,
	goal TEXT NOT NULL,
	dietary_restrictions TEXT NOT NULL DEFAULT '',
	health_notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS body_records (
	id {{pk}},
	user_id {{ref}} NOT NULL REFERENCES users(id),
	recorded_on {{date}} NOT NULL,
	weight_kg {{real}} NOT NULL,
	height_m {{real}} NOT NULL,
	bmi {{real}} NOT NULL,
	classification TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS body_compositions (
	id {{pk}},
	user_id {{ref}} NOT NULL REFERENCES users(id),
	recorded_on {{date}} NOT NULL,
	fat_pct {{real}},
	muscle_pct {{real}},
	water_pct {{real}},
	visceral_fat INTEGER,
	estimated BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS appointments (
	id {{pk}},
	user_id {{ref}} NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	event_date {{date}} NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	done BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (user_id, event_date, start_time)
);

CREATE TABLE IF NOT EXISTS appointment_activities (
	id {{pk}},
	appointment_id {{ref}} NOT NULL REFERENCES appointments(id),
	description TEXT NOT NULL,
	done BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS appointment_scores (
	id {{pk}},
	appointment_id {{ref}} NOT NULL UNIQUE REFERENCES appointments(id),
	total_items INTEGER NOT NULL,
	completed_items INTEGER NOT NULL,
	percentage {{real}} NOT NULL,
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS checklists (
	id {{pk}},
	user_id {{ref}} NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	event_date {{date}} NOT NULL
);

CREATE TABLE IF NOT EXISTS checklist_items (
	id {{pk}},
	checklist_id {{ref}} NOT NULL REFERENCES checklists(id),
	description TEXT NOT NULL,
	done BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS checklist_scores (
	id {{pk}},
	checklist_id {{ref}} NOT NULL UNIQUE REFERENCES checklists(id),
	total_items INTEGER NOT NULL,
	completed_items INTEGER NOT NULL,
	percentage {{real}} NOT NULL,
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS diet_plans (
	id {{pk}},
	user_id {{ref}} NOT NULL REFERENCES users(id),
	created_at {{ts}} NOT NULL,
	plan {{json}} NOT NULL
);

CREATE TABLE IF NOT EXISTS exercise_sessions (
	id {{pk}},
	user_id {{ref}} NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	calories_burned INTEGER NOT NULL,
	performed_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS analytics_events (
	id {{pk}},
	event_name TEXT NOT NULL,
	event_time {{ts}} NOT NULL,
	user_id {{ref}} NOT NULL,
	session_id TEXT,
	platform TEXT NOT NULL,
	app_version TEXT NOT NULL DEFAULT '',
	device_locale TEXT,
	source_event_key TEXT UNIQUE,
	properties {{json}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_body_records_user ON body_records (user_id, recorded_on);
CREATE INDEX IF NOT EXISTS idx_appointments_user_date ON appointments (user_id, event_date);
CREATE INDEX IF NOT EXISTS idx_checklists_user_date ON checklists (user_id, event_date);
CREATE INDEX IF NOT EXISTS idx_activities_parent ON appointment_activities (appointment_id);
CREATE INDEX IF NOT EXISTS idx_checklist_items_parent ON checklist_items (checklist_id);
CREATE INDEX IF NOT EXISTS idx_diet_plans_user ON diet_plans (user_id, created_at);
`

var dialects = map[string]*strings.Replacer{
	"postgres": strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{ts}}", "TIMESTAMPTZ",
		"{{date}}", "DATE",
		"{{real}}", "DOUBLE PRECISION",
		"{{json}}", "JSONB",
	),
	"sqlite": strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{ts}}", "TEXT",
		"{{date}}", "TEXT",
		"{{real}}", "REAL",
		"{{json}}", "TEXT",
	),
}

// Schema renders the DDL for a driver.
func Schema(driver string) (string, error) {
	name, err := driverName(driver)
	if err != nil {
		return "", err
	}
	return dialects[name].Replace(schema), nil
}

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, dbx *sql.DB, driver string) error {
	ddl, err := Schema(driver)
	if err != nil {
		return err
	}
	if _, err := dbx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
