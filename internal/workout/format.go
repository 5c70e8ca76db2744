package workout

import (
	"fmt"
	"strings"

	"github.com/claude/repbot/internal/models"
)

var fieldLabels = map[models.Field]string{
	models.FieldWeight:   "peso",
	models.FieldReps:     "reps",
	models.FieldSets:     "series",
	models.FieldRIR:      "RIR",
	models.FieldDuration: "duración",
	models.FieldDistance: "distancia",
	models.FieldCalories: "calorías",
}

var fieldExamples = map[models.Field]string{
	models.FieldWeight:   "80kg",
	models.FieldReps:     "10 reps",
	models.FieldSets:     "3 series",
	models.FieldRIR:      "RIR 2",
	models.FieldDuration: "60 segundos",
	models.FieldDistance: "5 km",
}

// Label is the user-facing name of a field.
func Label(f models.Field) string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// JoinLabels renders "a", "a y b", "a, b y c".
func JoinLabels(fields []models.Field) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = Label(f)
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " y " + labels[len(labels)-1]
}

// MissingText renders "Falta: x" or "Faltan: a, b y c".
func MissingText(fields []models.Field) string {
	if len(fields) == 0 {
		return ""
	}
	if len(fields) == 1 {
		return "Falta: " + JoinLabels(fields)
	}
	return "Faltan: " + JoinLabels(fields)
}

// Example builds a sample reply that supplies fields.
func Example(fields []models.Field) string {
	var parts []string
	for _, f := range fields {
		if e, ok := fieldExamples[f]; ok {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, " ")
}

// FormatDuration renders seconds as "N segundos", "N minutos" or "Xh Ym".
func FormatDuration(seconds float64) string {
	s := int(seconds)
	switch {
	case s <= 0:
		return ""
	case s < 60:
		return fmt.Sprintf("%d segundos", s)
	case s < 3600:
		return fmt.Sprintf("%d minutos", s/60)
	}
	h, m := s/3600, (s%3600)/60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h == 1 {
		return "1 hora"
	}
	return fmt.Sprintf("%d horas", h)
}

// ViolationText describes a violation in a short sentence.
func ViolationText(v Violation) string {
	switch v.Reason {
	case ReasonTooManyValues:
		return fmt.Sprintf("hay más valores de %s que series", Label(v.Field))
	case ReasonMustBeAbsent:
		return fmt.Sprintf("%s no aplica a un ejercicio con peso corporal", Label(v.Field))
	}
	switch v.Field {
	case models.FieldWeight:
		return fmt.Sprintf("peso fuera de rango (0-%d kg)", MaxWeightKg)
	case models.FieldReps:
		return fmt.Sprintf("reps fuera de rango (%d-%d)", MinReps, MaxReps)
	case models.FieldSets:
		return fmt.Sprintf("series fuera de rango (%d-%d)", MinSets, MaxSets)
	case models.FieldRIR:
		return fmt.Sprintf("RIR fuera de rango (%d-%d)", MinRIR, MaxRIR)
	case models.FieldDuration:
		return "duración fuera de rango (máximo 24 horas)"
	case models.FieldDistance:
		return fmt.Sprintf("distancia fuera de rango (máximo %d km)", MaxDistanceKm)
	}
	return Label(v.Field) + " inválido"
}
