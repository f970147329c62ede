package body

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lifeai-backend/internal/db"
)

var ErrNotFound = errors.New("record not found")

// ValidationError carries a message for the client.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Record is one weight and height measurement.
type Record struct {
	ID             int64   `json:"id"`
	Date           db.Date `json:"data_consulta"`
	WeightKg       float64 `json:"peso"`
	HeightM        float64 `json:"altura"`
	BMI            float64 `json:"imc_res"`
	Classification string  `json:"classificacao"`
}

// ChartPoint is a Record reduced to what the evolution chart plots.
type ChartPoint struct {
	Date db.Date `json:"data_consulta"`
	BMI  float64 `json:"imc_res"`
}

// Composition is a body composition reading. Nil fields were not measured.
type Composition struct {
	ID          int64    `json:"id"`
	Date        db.Date  `json:"data_consulta"`
	FatPct      *float64 `json:"gordura_percentual"`
	MusclePct   *float64 `json:"musculo_percentual"`
	WaterPct    *float64 `json:"agua_percentual"`
	VisceralFat *int     `json:"gordura_visceral"`
	Estimated   bool     `json:"estimado"`
}

type RecordInput struct {
	Date     string  `json:"data_consulta"`
	WeightKg float64 `json:"peso"`
	HeightM  float64 `json:"altura"`
}

type Store struct {
	dbx *sql.DB
	now func() time.Time
}

func NewStore(dbx *sql.DB) *Store {
	return &Store{dbx: dbx, now: time.Now}
}

// AddRecord computes BMI and classification and stores the measurement.
// The date defaults to today and may not be in the future.
func (s *Store) AddRecord(ctx context.Context, userID int64, in RecordInput) (Record, error) {
	today := db.DateOf(s.now())

	rec := Record{Date: today, WeightKg: in.WeightKg, HeightM: in.HeightM}
	if in.Date != "" {
		d, err := db.ParseDate(in.Date)
		if err != nil {
			return Record{}, &ValidationError{"data_consulta inválida, use AAAA-MM-DD"}
		}
		if d.After(today.Time) {
			return Record{}, &ValidationError{"Data não pode ser no futuro."}
		}
		rec.Date = d
	}
	if rec.WeightKg <= 0 {
		return Record{}, &ValidationError{"peso deve ser maior que zero"}
	}
	if rec.HeightM <= 0 || rec.HeightM > 3 {
		return Record{}, &ValidationError{"altura deve estar em metros"}
	}

	rec.BMI = BMI(rec.WeightKg, rec.HeightM)
	rec.Classification = Classify(rec.BMI)

	err := s.dbx.QueryRowContext(ctx, `
		INSERT INTO body_records (user_id, recorded_on, weight_kg, height_m, bmi, classification)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, userID, rec.Date, rec.WeightKg, rec.HeightM, rec.BMI, rec.Classification).Scan(&rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("insert body record: %w", err)
	}
	return rec, nil
}

// Records lists measurements, newest first.
func (s *Store) Records(ctx context.Context, userID int64) ([]Record, error) {
	rows, err := s.dbx.QueryContext(ctx, `
		SELECT id, recorded_on, weight_kg, height_m, bmi, classification
		FROM body_records
		WHERE user_id = $1
		ORDER BY recorded_on DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Date, &r.WeightKg, &r.HeightM, &r.BMI, &r.Classification); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Chart lists BMI over time, oldest first.
func (s *Store) Chart(ctx context.Context, userID int64) ([]ChartPoint, error) {
	rows, err := s.dbx.QueryContext(ctx, `
		SELECT recorded_on, bmi
		FROM body_records
		WHERE user_id = $1
		ORDER BY recorded_on ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChartPoint{}
	for rows.Next() {
		var p ChartPoint
		if err := rows.Scan(&p.Date, &p.BMI); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteRecord(ctx context.Context, userID, id int64) error {
	res, err := s.dbx.ExecContext(ctx, `DELETE FROM body_records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComposition stores a reading dated today.
func (s *Store) AddComposition(ctx context.Context, userID int64, c Composition) (Composition, error) {
	for name, v := range map[string]*float64{
		"gordura_percentual": c.FatPct,
		"musculo_percentual": c.MusclePct,
		"agua_percentual":    c.WaterPct,
	} {
		if v != nil && (*v < 0 || *v > 100) {
			return Composition{}, &ValidationError{name + " deve estar entre 0 e 100"}
		}
	}
	if c.VisceralFat != nil && *c.VisceralFat < 0 {
		return Composition{}, &ValidationError{"gordura_visceral não pode ser negativa"}
	}

	c.Date = db.DateOf(s.now())
	err := s.dbx.QueryRowContext(ctx, `
		INSERT INTO body_compositions (user_id, recorded_on, fat_pct, muscle_pct, water_pct, visceral_fat, estimated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, userID, c.Date, c.FatPct, c.MusclePct, c.WaterPct, c.VisceralFat, c.Estimated).Scan(&c.ID)
	if err != nil {
		return Composition{}, fmt.Errorf("insert composition: %w", err)
	}
	return c, nil
}

// Compositions lists readings, newest first.
func (s *Store) Compositions(ctx context.Context, userID int64) ([]Composition, error) {
	rows, err := s.dbx.QueryContext(ctx, `
		SELECT id, recorded_on, fat_pct, muscle_pct, water_pct, visceral_fat, estimated
		FROM body_compositions
		WHERE user_id = $1
		ORDER BY recorded_on DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Composition{}
	for rows.Next() {
		var (
			c                  Composition
			fat, muscle, water sql.NullFloat64
			visceral           sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Date, &fat, &muscle, &water, &visceral, &c.Estimated); err != nil {
			return nil, err
		}
		c.FatPct = nullFloat(fat)
		c.MusclePct = nullFloat(muscle)
		c.WaterPct = nullFloat(water)
		if visceral.Valid {
			v := int(visceral.Int64)
			c.VisceralFat = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
