package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lifeai-backend/internal/agenda"
	"lifeai-backend/internal/db"
)

// Score is a stored score record.
type Score struct {
	Kind      agenda.Kind
	ParentID  int64
	Counts
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Score) Tier() Tier { return TierFor(s.Percentage) }

// MonthlyEntry is one scored parent in a month.
type MonthlyEntry struct {
	ParentID   int64
	Date       db.Date
	Percentage float64
}

type Service struct {
	dbx    *sql.DB
	agenda *agenda.Store
	now    func() time.Time
}

func NewService(dbx *sql.DB, agendaStore *agenda.Store) *Service {
	return &Service{dbx: dbx, agenda: agendaStore, now: time.Now}
}

// Score counts the parent's items and upserts its score. It returns
// agenda.ErrNotFound when the parent is missing or owned by someone else,
// and ErrNoItems when it has no items.
func (s *Service) Score(ctx context.Context, kind agenda.Kind, parentID, userID int64) (Score, error) {
	if err := s.agenda.Owns(ctx, kind, userID, parentID); err != nil {
		return Score{}, err
	}

	t := kind.Tables()

	var total, done int
	err := s.dbx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN done THEN 1 ELSE 0 END), 0)
		FROM %s
		WHERE %s = $1
	`, t.Child, t.FK), parentID).Scan(&total, &done)
	if err != nil {
		return Score{}, fmt.Errorf("count items: %w", err)
	}

	counts, err := Compute(total, done)
	if err != nil {
		return Score{}, err
	}

	sc := Score{Kind: kind, ParentID: parentID}
	var created, updated db.Time
	err = s.dbx.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, total_items, completed_items, percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (%[2]s) DO UPDATE SET
			total_items = excluded.total_items,
			completed_items = excluded.completed_items,
			percentage = excluded.percentage,
			updated_at = excluded.updated_at
		RETURNING total_items, completed_items, percentage, created_at, updated_at
	`, t.Score, t.FK),
		parentID, counts.Total, counts.Completed, counts.Percentage, db.Timestamp(s.now()),
	).Scan(&sc.Total, &sc.Completed, &sc.Percentage, &created, &updated)
	if err != nil {
		return Score{}, fmt.Errorf("upsert score: %w", err)
	}

	sc.CreatedAt = created.Time
	sc.UpdatedAt = updated.Time
	return sc, nil
}

// Monthly lists the user's scored parents dated in year/month, by date.
func (s *Service) Monthly(ctx context.Context, kind agenda.Kind, userID int64, year int, month time.Month) ([]MonthlyEntry, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month out of range: %d", month)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	t := kind.Tables()

	rows, err := s.dbx.QueryContext(ctx, fmt.Sprintf(`
		SELECT p.id, p.event_date, sc.percentage
		FROM %s p
		JOIN %s sc ON sc.%s = p.id
		WHERE p.user_id = $1 AND p.event_date >= $2 AND p.event_date < $3
		ORDER BY p.event_date, p.id
	`, t.Parent, t.Score, t.FK), userID, db.DateOf(from), db.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("monthly scores: %w", err)
	}
	defer rows.Close()

	out := []MonthlyEntry{}
	for rows.Next() {
		var e MonthlyEntry
		if err := rows.Scan(&e.ParentID, &e.Date, &e.Percentage); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
