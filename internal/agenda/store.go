package agenda

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lifeai-backend/internal/db"
)

// Store is the SQL layer for appointments, checklists and their items.
type Store struct {
	dbx *sql.DB
}

func NewStore(dbx *sql.DB) *Store {
	return &Store{dbx: dbx}
}

// Owns returns ErrNotFound unless parentID of kind exists and belongs to userID.
func (s *Store) Owns(ctx context.Context, kind Kind, userID, parentID int64) error {
	t := kind.Tables()
	var one int
	err := s.dbx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 AND user_id = $2`, t.Parent),
		parentID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ---- appointments ----

const appointmentCols = `id, title, event_date, start_time, end_time, done`

func scanAppointment(row interface{ Scan(...any) error }) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.Title, &a.Date, &a.Start, &a.End, &a.Done)
	return a, err
}

// ListAppointments returns the user's appointments, newest day first, then by start time.
func (s *Store) ListAppointments(ctx context.Context, userID int64) ([]Appointment, error) {
	rows, err := s.dbx.QueryContext(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE user_id = $1
		ORDER BY event_date DESC, start_time ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAppointment loads one appointment with its activities.
func (s *Store) GetAppointment(ctx context.Context, userID, id int64) (Appointment, error) {
	a, err := scanAppointment(s.dbx.QueryRowContext(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, err
	}

	a.Activities, err = s.listItems(ctx, KindAppointment, id)
	return a, err
}

func (s *Store) CreateAppointment(ctx context.Context, userID int64, in AppointmentInput) (Appointment, error) {
	a, err := in.apply(Appointment{}, true)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.checkSlot(ctx, userID, a); err != nil {
		return Appointment{}, err
	}

	err = s.dbx.QueryRowContext(ctx, `
		INSERT INTO appointments (user_id, title, event_date, start_time, end_time, done)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, userID, a.Title, a.Date, a.Start, a.End, a.Done).Scan(&a.ID)
	if err != nil {
		return Appointment{}, slotError(err)
	}
	return a, nil
}

// UpdateAppointment replaces (full) or patches an appointment.
func (s *Store) UpdateAppointment(ctx context.Context, userID, id int64, in AppointmentInput, full bool) (Appointment, error) {
	cur, err := s.GetAppointment(ctx, userID, id)
	if err != nil {
		return Appointment{}, err
	}
	a, err := in.apply(cur, full)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.checkSlot(ctx, userID, a); err != nil {
		return Appointment{}, err
	}

	_, err = s.dbx.ExecContext(ctx, `
		UPDATE appointments
		SET title = $1, event_date = $2, start_time = $3, end_time = $4, done = $5
		WHERE id = $6 AND user_id = $7
	`, a.Title, a.Date, a.Start, a.End, a.Done, id, userID)
	if err != nil {
		return Appointment{}, slotError(err)
	}
	return a, nil
}

// checkSlot rejects a second appointment at the same day and start time.
func (s *Store) checkSlot(ctx context.Context, userID int64, a Appointment) error {
	var one int
	err := s.dbx.QueryRowContext(ctx, `
		SELECT 1 FROM appointments
		WHERE user_id = $1 AND event_date = $2 AND start_time = $3 AND id <> $4
	`, userID, a.Date, a.Start, a.ID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	default:
		return ErrSlotTaken
	}
}

// slotError maps a unique violation that slipped past checkSlot.
func slotError(err error) error {
	if db.IsUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

// ---- checklists ----

func (s *Store) ListChecklists(ctx context.Context, userID int64) ([]Checklist, error) {
	rows, err := s.dbx.QueryContext(ctx, `
		SELECT id, title, event_date
		FROM checklists
		WHERE user_id = $1
		ORDER BY event_date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Checklist{}
	for rows.Next() {
		var c Checklist
		if err := rows.Scan(&c.ID, &c.Title, &c.Date); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetChecklist(ctx context.Context, userID, id int64) (Checklist, error) {
	var c Checklist
	err := s.dbx.QueryRowContext(ctx, `
		SELECT id, title, event_date FROM checklists WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&c.ID, &c.Title, &c.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Checklist{}, ErrNotFound
	}
	if err != nil {
		return Checklist{}, err
	}

	c.Items, err = s.listItems(ctx, KindChecklist, id)
	return c, err
}

func (s *Store) CreateChecklist(ctx context.Context, userID int64, in ChecklistInput) (Checklist, error) {
	c, err := in.apply(Checklist{}, true)
	if err != nil {
		return Checklist{}, err
	}
	err = s.dbx.QueryRowContext(ctx, `
		INSERT INTO checklists (user_id, title, event_date) VALUES ($1, $2, $3) RETURNING id
	`, userID, c.Title, c.Date).Scan(&c.ID)
	return c, err
}

func (s *Store) UpdateChecklist(ctx context.Context, userID, id int64, in ChecklistInput, full bool) (Checklist, error) {
	cur, err := s.GetChecklist(ctx, userID, id)
	if err != nil {
		return Checklist{}, err
	}
	c, err := in.apply(cur, full)
	if err != nil {
		return Checklist{}, err
	}
	_, err = s.dbx.ExecContext(ctx, `
		UPDATE checklists SET title = $1, event_date = $2 WHERE id = $3 AND user_id = $4
	`, c.Title, c.Date, id, userID)
	return c, err
}

// Delete removes a parent with its items and score.
func (s *Store) Delete(ctx context.Context, kind Kind, userID, id int64) error {
	if err := s.Owns(ctx, kind, userID, id); err != nil {
		return err
	}
	t := kind.Tables()
	return db.Tx(ctx, s.dbx, func(tx *sql.Tx) error {
		for _, q := range []string{
			fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Score, t.FK),
			fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Child, t.FK),
			fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.Parent),
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---- items ----

func (s *Store) listItems(ctx context.Context, kind Kind, parentID int64) ([]Item, error) {
	t := kind.Tables()
	rows, err := s.dbx.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, description, done FROM %s WHERE %s = $1 ORDER BY id`, t.Child, t.FK),
		parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Description, &it.Done); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Items lists the children of a parent the user owns.
func (s *Store) Items(ctx context.Context, kind Kind, userID, parentID int64) ([]Item, error) {
	if err := s.Owns(ctx, kind, userID, parentID); err != nil {
		return nil, err
	}
	return s.listItems(ctx, kind, parentID)
}

func (s *Store) AddItem(ctx context.Context, kind Kind, userID, parentID int64, in ItemInput) (Item, error) {
	if err := s.Owns(ctx, kind, userID, parentID); err != nil {
		return Item{}, err
	}
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		return Item{}, invalid("descricao é obrigatória")
	}

	it := Item{Description: strings.TrimSpace(*in.Description)}
	if in.Done != nil {
		it.Done = *in.Done
	}

	t := kind.Tables()
	err := s.dbx.QueryRowContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, description, done) VALUES ($1, $2, $3) RETURNING id`, t.Child, t.FK),
		parentID, it.Description, it.Done,
	).Scan(&it.ID)
	return it, err
}

// UpdateItem patches an item. A score already stored for the parent is left as is.
func (s *Store) UpdateItem(ctx context.Context, kind Kind, userID, parentID, itemID int64, in ItemInput) (Item, error) {
	if err := s.Owns(ctx, kind, userID, parentID); err != nil {
		return Item{}, err
	}

	t := kind.Tables()
	var it Item
	err := s.dbx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, description, done FROM %s WHERE id = $1 AND %s = $2`, t.Child, t.FK),
		itemID, parentID,
	).Scan(&it.ID, &it.Description, &it.Done)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}

	if in.Description != nil {
		it.Description = strings.TrimSpace(*in.Description)
		if it.Description == "" {
			return Item{}, invalid("descricao é obrigatória")
		}
	}
	if in.Done != nil {
		it.Done = *in.Done
	}

	_, err = s.dbx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET description = $1, done = $2 WHERE id = $3`, t.Child),
		it.Description, it.Done, it.ID,
	)
	return it, err
}

func (s *Store) DeleteItem(ctx context.Context, kind Kind, userID, parentID, itemID int64) error {
	if err := s.Owns(ctx, kind, userID, parentID); err != nil {
		return err
	}

	t := kind.Tables()
	res, err := s.dbx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2`, t.Child, t.FK),
		itemID, parentID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
