package assistant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lifeai-backend/internal/db"
)

var ErrNotFound = errors.New("not found")

// DietPlan is one stored plan.
type DietPlan struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"data_criacao"`
	Plan      json.RawMessage `json:"plano_alimentar"`
}

// DietStore persists diet plans. Plans are append-only.
type DietStore struct {
	dbx *sql.DB
	now func() time.Time
}

func NewDietStore(dbx *sql.DB) *DietStore {
	return &DietStore{dbx: dbx, now: time.Now}
}

func (s *DietStore) Insert(ctx context.Context, userID int64, plan json.RawMessage) (DietPlan, error) {
	created := s.now().UTC()

	var id int64
	err := s.dbx.QueryRowContext(ctx, `
		INSERT INTO diet_plans (user_id, created_at, plan)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, db.Timestamp(created), string(plan)).Scan(&id)
	if err != nil {
		return DietPlan{}, fmt.Errorf("insert diet plan: %w", err)
	}

	return DietPlan{ID: id, CreatedAt: created.Truncate(time.Microsecond), Plan: plan}, nil
}

// Latest returns the newest plan or ErrNotFound.
func (s *DietStore) Latest(ctx context.Context, userID int64) (DietPlan, error) {
	plans, err := s.query(ctx, `
		SELECT id, created_at, plan FROM diet_plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID)
	if err != nil {
		return DietPlan{}, err
	}
	if len(plans) == 0 {
		return DietPlan{}, ErrNotFound
	}
	return plans[0], nil
}

// List returns all plans, newest first.
func (s *DietStore) List(ctx context.Context, userID int64) ([]DietPlan, error) {
	return s.query(ctx, `
		SELECT id, created_at, plan FROM diet_plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (s *DietStore) query(ctx context.Context, q string, args ...any) ([]DietPlan, error) {
	rows, err := s.dbx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query diet plans: %w", err)
	}
	defer rows.Close()

	plans := []DietPlan{}
	for rows.Next() {
		var (
			p       DietPlan
			created db.Time
			raw     []byte
		)
		if err := rows.Scan(&p.ID, &created, &raw); err != nil {
			return nil, fmt.Errorf("scan diet plan: %w", err)
		}
		p.CreatedAt = created.Time
		p.Plan = json.RawMessage(raw)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
