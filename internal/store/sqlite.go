package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/retaillab/markdown-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS plans (
	id         TEXT PRIMARY KEY,
	inputs     TEXT NOT NULL,
	discounts  TEXT NOT NULL,
	revenue    REAL NOT NULL,
	status     TEXT NOT NULL,
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreatePlan(ctx context.Context, plan model.Plan) (*model.Plan, error) {
	plan.ID = uuid.New().String()
	plan.CreatedAt = time.Now().UTC()

	inputsJSON, err := json.Marshal(plan.Inputs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal inputs")
	}
	discountsJSON, err := json.Marshal(plan.Discounts)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal discounts")
	}
	var resultJSON []byte
	if plan.Result != nil {
		if resultJSON, err = json.Marshal(plan.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal result")
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, inputs, discounts, revenue, status, result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, string(inputsJSON), string(discountsJSON), plan.Revenue, string(plan.Status), nullable(resultJSON), plan.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert plan")
	}

	return &plan, nil
}

func (s *SQLiteStore) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, discounts, revenue, status, result, created_at FROM plans WHERE id = ?`,
		planID,
	)
	return scanPlan(row)
}

func (s *SQLiteStore) ListPlans(ctx context.Context, filter PlanFilter) ([]model.Plan, error) {
	query := `SELECT id, inputs, discounts, revenue, status, result, created_at FROM plans WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite rejects OFFSET without LIMIT; -1 means unlimited.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plans")
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "sqlite: iterate plans")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*model.Plan, error) {
	var p model.Plan
	var inputsJSON, discountsJSON string
	var resultJSON sql.NullString

	err := row.Scan(&p.ID, &inputsJSON, &discountsJSON, &p.Revenue, &p.Status, &resultJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "sqlite")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan plan")
	}

	if err := json.Unmarshal([]byte(inputsJSON), &p.Inputs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal inputs")
	}
	if err := json.Unmarshal([]byte(discountsJSON), &p.Discounts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal discounts")
	}
	if resultJSON.Valid && resultJSON.String != "" {
		p.Result = &model.RevenueResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), p.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &p, nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
