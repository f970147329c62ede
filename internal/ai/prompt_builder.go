package ai

import (
	"fmt"
	"strings"
)

// ProfileContext is the user data injected into prompts. Zero fields are skipped.
type ProfileContext struct {
	Name                string
	Age                 int
	WeightKg            float64
	HeightM             float64
	Sex                 string
	Goal                string
	DietaryRestrictions string
	HealthNotes         string
	Classification      string
}

func (p ProfileContext) IsZero() bool {
	return p == ProfileContext{}
}

// BuildProfileContext renders p as a labelled block, or "" when p is empty.
func BuildProfileContext(p ProfileContext) string {
	if p.IsZero() {
		return ""
	}

	var b strings.Builder
	b.WriteString("PERFIL DO USUÁRIO:\n")

	line := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString("- ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("Nome", p.Name)
	if p.Age > 0 {
		line("Idade", fmt.Sprintf("%d anos", p.Age))
	}
	if p.WeightKg > 0 {
		line("Peso", fmt.Sprintf("%.1f kg", p.WeightKg))
	}
	if p.HeightM > 0 {
		line("Altura", fmt.Sprintf("%.2f m", p.HeightM))
	}
	line("Sexo", p.Sex)
	line("Objetivo", p.Goal)
	line("Restrições alimentares", p.DietaryRestrictions)
	line("Observações de saúde", p.HealthNotes)
	line("Classificação IMC", p.Classification)

	return b.String()
}
