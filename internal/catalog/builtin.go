package catalog

import "github.com/claude/repbot/internal/models"

var (
	cardioTypes = []models.ExerciseType{models.CardioTime, models.CardioDistance, models.CardioBoth}
	weighted    = []models.ExerciseType{models.StrengthWeighted}
	bodyweight  = []models.ExerciseType{models.StrengthBodyweight}
)

// builtins is the seed catalog. Entries are immutable; callers get copies.
var builtins = []models.Exercise{
	// Cardio
	{Name: "Caminadora", MuscleGroup: "cardio", Equipment: "máquina", Aliases: []string{"treadmill", "cinta", "caminar"},
		ExerciseType: models.CardioTime, DefaultType: models.CardioTime, AllowedTypes: cardioTypes},
	{Name: "Bicicleta Estática", MuscleGroup: "cardio", Equipment: "máquina", Aliases: []string{"bicicleta", "bike", "spinning"},
		ExerciseType: models.CardioTime, DefaultType: models.CardioTime, AllowedTypes: cardioTypes},

	// Pecho
	{Name: "Press de Banca", MuscleGroup: "pecho", Equipment: "barra", Aliases: []string{"press plano", "bench press", "pecho plano"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},
	{Name: "Press Inclinado", MuscleGroup: "pecho", Equipment: "barra", Aliases: []string{"press inclinado", "incline bench"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},

	// Espalda
	{Name: "Dominadas", MuscleGroup: "espalda", Equipment: "peso corporal", Aliases: []string{"pull ups", "chin ups"},
		ExerciseType: models.StrengthBodyweight, DefaultType: models.StrengthBodyweight, AllowedTypes: bodyweight},
	{Name: "Remo con Barra", MuscleGroup: "espalda", Equipment: "barra", Aliases: []string{"remo barra", "barbell row"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},

	// Piernas
	{Name: "Sentadilla", MuscleGroup: "piernas", Equipment: "barra", Aliases: []string{"squat", "sentadilla libre"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},
	{Name: "Prensa 45°", MuscleGroup: "piernas", Equipment: "máquina", Aliases: []string{"prensa", "leg press"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},

	// Hombros
	{Name: "Press Militar", MuscleGroup: "hombros", Equipment: "barra", Aliases: []string{"press hombros", "overhead press"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},
	{Name: "Elevaciones Laterales", MuscleGroup: "hombros", Equipment: "mancuerna", Aliases: []string{"laterales", "lateral raise"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},

	// Bíceps
	{Name: "Curl con Barra", MuscleGroup: "biceps", Equipment: "barra", Aliases: []string{"curl barra", "barbell curl"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},
	{Name: "Curl Martillo", MuscleGroup: "biceps", Equipment: "mancuerna", Aliases: []string{"martillo", "hammer curl"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},

	// Tríceps
	{Name: "Fondos en Banco", MuscleGroup: "triceps", Equipment: "peso corporal", Aliases: []string{"fondos triceps", "bench dips"},
		ExerciseType: models.StrengthBodyweight, DefaultType: models.StrengthBodyweight,
		AllowedTypes: []models.ExerciseType{models.StrengthBodyweight, models.IsometricTime}},
	{Name: "Extensión de Tríceps", MuscleGroup: "triceps", Equipment: "cable", Aliases: []string{"pushdown", "extensión polea"},
		ExerciseType: models.StrengthWeighted, DefaultType: models.StrengthWeighted, AllowedTypes: weighted},

	// Core
	{Name: "Plancha", MuscleGroup: "core", Equipment: "peso corporal", Aliases: []string{"plank", "isométrico"},
		ExerciseType: models.IsometricTime, DefaultType: models.IsometricTime,
		AllowedTypes: []models.ExerciseType{models.IsometricTime, models.StrengthBodyweight}},
	{Name: "Crunch", MuscleGroup: "core", Equipment: "peso corporal", Aliases: []string{"abdominales", "crunches"},
		ExerciseType: models.StrengthBodyweight, DefaultType: models.StrengthBodyweight, AllowedTypes: bodyweight},
}

// Builtins returns a copy of the seed catalog in catalog order.
func Builtins() []models.Exercise {
	out := make([]models.Exercise, len(builtins))
	copy(out, builtins)
	return out
}
