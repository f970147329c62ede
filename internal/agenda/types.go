package agenda

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lifeai-backend/internal/db"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrSlotTaken = errors.New("já existe um compromisso nesse dia e horário")
)

// ValidationError is a client input problem; its message is returned verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Kind is a parent record type owning child items.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindChecklist   Kind = "checklist"
)

// Tables names the storage for one kind.
type Tables struct {
	Parent string
	Child  string
	Score  string
	// FK is the column in Child and Score pointing at Parent.
	FK string
}

var kindTables = map[Kind]Tables{
	KindAppointment: {Parent: "appointments", Child: "appointment_activities", Score: "appointment_scores", FK: "appointment_id"},
	KindChecklist:   {Parent: "checklists", Child: "checklist_items", Score: "checklist_scores", FK: "checklist_id"},
}

func (k Kind) Tables() Tables {
	t, ok := kindTables[k]
	if !ok {
		panic(fmt.Sprintf("agenda: unknown kind %q", k))
	}
	return t
}

// IDField is the JSON name of a parent id of this kind.
func (k Kind) IDField() string {
	if k == KindChecklist {
		return "checklist_id"
	}
	return "compromisso_id"
}

// ParseKind accepts the API spelling ("compromisso", "checklist") or the
// internal one. Empty means appointment.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compromisso", "compromissos", string(KindAppointment):
		return KindAppointment, nil
	case "checklist", "checklists":
		return KindChecklist, nil
	default:
		return "", invalid("tipo inválido: %q", s)
	}
}

// Appointment is a dated time slot with activities.
type Appointment struct {
	ID         int64   `json:"id"`
	Title      string  `json:"titulo"`
	Date       db.Date `json:"data"`
	Start      string  `json:"hora_inicio"`
	End        string  `json:"hora_fim"`
	Done       bool    `json:"concluido"`
	Activities []Item  `json:"atividades,omitempty"`
}

// Checklist is a dated list of items.
type Checklist struct {
	ID    int64   `json:"id"`
	Title string  `json:"titulo"`
	Date  db.Date `json:"data"`
	Items []Item  `json:"itens,omitempty"`
}

// Item is a child of an appointment (activity) or checklist.
type Item struct {
	ID          int64  `json:"id"`
	Description string `json:"descricao"`
	Done        bool   `json:"done"`
}

// AppointmentInput carries optional fields for create, replace and patch.
type AppointmentInput struct {
	Title *string `json:"titulo"`
	Date  *string `json:"data"`
	Start *string `json:"hora_inicio"`
	End   *string `json:"hora_fim"`
	Done  *bool   `json:"concluido"`
}

type ChecklistInput struct {
	Title *string `json:"titulo"`
	Date  *string `json:"data"`
}

type ItemInput struct {
	Description *string `json:"descricao"`
	Done        *bool   `json:"done"`
}

// ParseClock accepts HH:MM or HH:MM:SS and returns HH:MM.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", invalid("horário inválido %q, use HH:MM", s)
}

func parseDate(s string) (db.Date, error) {
	d, err := db.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return db.Date{}, invalid("data inválida %q, use AAAA-MM-DD", s)
	}
	return d, nil
}

// apply overlays in on a and validates the result. full requires every field.
func (in AppointmentInput) apply(a Appointment, full bool) (Appointment, error) {
	if full && (in.Title == nil || in.Date == nil || in.Start == nil || in.End == nil) {
		return a, invalid("titulo, data, hora_inicio e hora_fim são obrigatórios")
	}

	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Date != nil {
		d, err := parseDate(*in.Date)
		if err != nil {
			return a, err
		}
		a.Date = d
	}
	if in.Start != nil {
		c, err := ParseClock(*in.Start)
		if err != nil {
			return a, err
		}
		a.Start = c
	}
	if in.End != nil {
		c, err := ParseClock(*in.End)
		if err != nil {
			return a, err
		}
		a.End = c
	}
	if in.Done != nil {
		a.Done = *in.Done
	}

	if a.Title == "" {
		return a, invalid("titulo é obrigatório")
	}
	if a.End <= a.Start {
		return a, invalid("hora_fim deve ser depois de hora_inicio")
	}
	return a, nil
}

func (in ChecklistInput) apply(c Checklist, full bool) (Checklist, error) {
	if full && (in.Title == nil || in.Date == nil) {
		return c, invalid("titulo e data são obrigatórios")
	}
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Date != nil {
		d, err := parseDate(*in.Date)
		if err != nil {
			return c, err
		}
		c.Date = d
	}
	if c.Title == "" {
		return c, invalid("titulo é obrigatório")
	}
	return c, nil
}
