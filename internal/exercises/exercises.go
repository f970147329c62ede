// Package exercises stores finished workout sessions.
package exercises

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/db"
	"lifeai-backend/internal/respond"
)

type Session struct {
	ID              int64     `json:"id"`
	Name            string    `json:"exercise_name"`
	DurationSeconds int       `json:"duration_seconds"`
	CaloriesBurned  int       `json:"calories_burned"`
	PerformedAt     time.Time `json:"created_at"`
}

type Store struct {
	dbx *sql.DB
	now func() time.Time
}

func NewStore(dbx *sql.DB) *Store {
	return &Store{dbx: dbx, now: time.Now}
}

// Add stores a session. A zero PerformedAt means now.
func (s *Store) Add(ctx context.Context, userID int64, in Session) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.PerformedAt.IsZero() {
		in.PerformedAt = s.now()
	}
	in.PerformedAt = in.PerformedAt.UTC().Truncate(time.Microsecond)

	err := s.dbx.QueryRowContext(ctx, `
		INSERT INTO exercise_sessions (user_id, name, duration_seconds, calories_burned, performed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userID, in.Name, in.DurationSeconds, in.CaloriesBurned, db.Timestamp(in.PerformedAt)).Scan(&in.ID)
	if err != nil {
		return Session{}, fmt.Errorf("insert exercise session: %w", err)
	}
	return in, nil
}

// List returns sessions, most recent first.
func (s *Store) List(ctx context.Context, userID int64) ([]Session, error) {
	rows, err := s.dbx.QueryContext(ctx, `
		SELECT id, name, duration_seconds, calories_burned, performed_at
		FROM exercise_sessions
		WHERE user_id = $1
		ORDER BY performed_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var (
			e  Session
			at db.Time
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.DurationSeconds, &e.CaloriesBurned, &at); err != nil {
			return nil, err
		}
		e.PerformedAt = at.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListHandler serves GET /exercicios/.
func ListHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		list, err := store.List(r.Context(), uid)
		if err != nil {
			log.Error("list exercises", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

// CreateHandler serves POST /exercicios/.
func CreateHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		var in Session
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		switch {
		case strings.TrimSpace(in.Name) == "":
			respond.Error(w, http.StatusBadRequest, "exercise_name é obrigatório")
			return
		case in.DurationSeconds < 0 || in.CaloriesBurned < 0:
			respond.Error(w, http.StatusBadRequest, "duration_seconds e calories_burned não podem ser negativos")
			return
		}

		saved, err := store.Add(r.Context(), uid, in)
		if err != nil {
			log.Error("add exercise", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}
		respond.JSON(w, http.StatusCreated, saved)
	}
}
