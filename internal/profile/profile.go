package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lifeai-backend/internal/ai"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrExists   = errors.New("profile already exists")
)

type Profile struct {
	Name                string `json:"nome"`
	Sex                 string `json:"sexo"`
	Age                 int    `json:"idade"`
	Goal                string `json:"objetivo"`
	DietaryRestrictions string `json:"restricoes_alimentares"`
	HealthNotes         string `json:"observacao_saude"`
}

// Input is a create or partial update body.
type Input struct {
	Name                *string `json:"nome"`
	Sex                 *string `json:"sexo"`
	Age                 *int    `json:"idade"`
	Goal                *string `json:"objetivo"`
	DietaryRestrictions *string `json:"restricoes_alimentares"`
	HealthNotes         *string `json:"observacao_saude"`
}

// ValidationError carries a message for the client.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func (in Input) apply(p Profile, full bool) (Profile, error) {
	if full && (in.Name == nil || in.Sex == nil || in.Age == nil || in.Goal == nil) {
		return p, &ValidationError{"nome, sexo, idade e objetivo são obrigatórios"}
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, in.Name)
	set(&p.Sex, in.Sex)
	set(&p.Goal, in.Goal)
	set(&p.DietaryRestrictions, in.DietaryRestrictions)
	set(&p.HealthNotes, in.HealthNotes)
	if in.Age != nil {
		p.Age = *in.Age
	}

	switch {
	case p.Name == "":
		return p, &ValidationError{"nome é obrigatório"}
	case p.Sex == "":
		return p, &ValidationError{"sexo é obrigatório"}
	case p.Goal == "":
		return p, &ValidationError{"objetivo é obrigatório"}
	case p.Age <= 0 || p.Age > 130:
		return p, &ValidationError{"idade inválida"}
	}
	return p, nil
}

type Store struct {
	dbx *sql.DB
}

func NewStore(dbx *sql.DB) *Store {
	return &Store{dbx: dbx}
}

func (s *Store) Get(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	err := s.dbx.QueryRowContext(ctx, `
		SELECT name, sex, age, goal, dietary_restrictions, health_notes
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&p.Name, &p.Sex, &p.Age, &p.Goal, &p.DietaryRestrictions, &p.HealthNotes)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *Store) Create(ctx context.Context, userID int64, in Input) (Profile, error) {
	if _, err := s.Get(ctx, userID); err == nil {
		return Profile{}, ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	p, err := in.apply(Profile{}, true)
	if err != nil {
		return Profile{}, err
	}

	_, err = s.dbx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, sex, age, goal, dietary_restrictions, health_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, userID, p.Name, p.Sex, p.Age, p.Goal, p.DietaryRestrictions, p.HealthNotes)
	if err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (s *Store) Patch(ctx context.Context, userID int64, in Input) (Profile, error) {
	cur, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p, err := in.apply(cur, false)
	if err != nil {
		return Profile{}, err
	}

	_, err = s.dbx.ExecContext(ctx, `
		UPDATE profiles
		SET name = $1, sex = $2, age = $3, goal = $4, dietary_restrictions = $5, health_notes = $6
		WHERE user_id = $7
	`, p.Name, p.Sex, p.Age, p.Goal, p.DietaryRestrictions, p.HealthNotes, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// ProfileContext merges the profile with the latest body record for prompts.
// Users with neither get a zero value.
func (s *Store) ProfileContext(ctx context.Context, userID int64) (ai.ProfileContext, error) {
	var pc ai.ProfileContext

	p, err := s.Get(ctx, userID)
	switch {
	case err == nil:
		pc.Name = p.Name
		pc.Age = p.Age
		pc.Sex = p.Sex
		pc.Goal = p.Goal
		pc.DietaryRestrictions = p.DietaryRestrictions
		pc.HealthNotes = p.HealthNotes
	case !errors.Is(err, ErrNotFound):
		return ai.ProfileContext{}, err
	}

	err = s.dbx.QueryRowContext(ctx, `
		SELECT weight_kg, height_m, classification
		FROM body_records
		WHERE user_id = $1
		ORDER BY recorded_on DESC, id DESC
		LIMIT 1
	`, userID).Scan(&pc.WeightKg, &pc.HeightM, &pc.Classification)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ai.ProfileContext{}, fmt.Errorf("latest body record: %w", err)
	}
	return pc, nil
}
