package conversation

import (
	"fmt"
	"strings"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/workout"
)

const (
	exampleStrength = `"Press de banca 80kg 10 reps 3 series RIR 2"`

	welcomeText = "¡Bienvenido a RepBot! 👋\n\n" +
		"Registra tus entrenamientos escribiendo lo que hiciste.\n\n" +
		"Antes de empezar, ¿cómo te llamas?"

	askNameText = "¿Cómo te llamas?"

	unrecognizedText = "🤔 No entendí tu mensaje.\n\n" +
		"💡 *Formato:*\n\"Nombre del ejercicio + datos\"\n" +
		"Ej: " + exampleStrength + "\n" +
		"Ej: \"Plancha 60 segundos\"\n\n" +
		"Escribe \"ayuda\" para ver más ejemplos."

	couldNotParseText = "⚠️ No pude procesar tu mensaje en este momento. Intenta de nuevo en unos segundos."

	retryText = "⚠️ Tuve un problema técnico. Tus datos siguen guardados; intenta de nuevo."

	conflictText = "⚠️ Recibí dos mensajes a la vez. Envía el último de nuevo, por favor."

	restartText = "✅ Entendido. Vamos a registrar un nuevo ejercicio.\n\n" +
		"Escribe el nombre del ejercicio seguido de los datos.\n" +
		"Ejemplo: \"Press de banca 80kg 10 reps 3 series\""

	cancelledText = "❌ Registro cancelado.\n\nPuedes empezar de nuevo con otro ejercicio."

	nothingToCancelText = "❌ Registro cancelado.\n\n" +
		"Puedes empezar de nuevo con otro ejercicio.\n" +
		"Escribe el nombre del ejercicio seguido de los datos."

	doneText = "¡Entrenamiento completado! 💪 Escribe cuando quieras registrar."

	weightRetryText = "Indica el peso en kg, por ejemplo: \"80kg\" o \"80\".\n" +
		"O escribe \"sin peso\" si es con tu peso corporal."

	rirExplanationText = "💡 *RIR = Repeticiones en Reserva*\n\n" +
		"Es cuántas repeticiones más podrías haber hecho antes de parar:\n" +
		"• 0 = Llegaste al fallo (no podías más)\n" +
		"• 1 = Podías hacer 1 rep más\n" +
		"• 2-5 = Podías hacer esa cantidad de reps más\n\n" +
		"¿Cuántas reps te faltaban? (0-5) 💪"

	rirUnsureText = "🤔 Entiendo que no estás seguro.\n\n" +
		"¿Cuántas repeticiones más crees que podrías haber hecho? Dame tu mejor estimación (0-5).\n\n" +
		"💡 Si llegaste al fallo = 0, si te quedó una rep más = 1."

	rirRetryText = "⚠️ Necesito saber el RIR (0-5).\n\n" +
		"Ejemplos:\n" +
		"• \"3\" → RIR 3 para todos los sets\n" +
		"• \"0, 1, 2\" → Set 1: 0, Set 2: 1, Set 3: 2\n" +
		"• \"RIR 1 en el primer set RIR 0 en los otros\"\n\n" +
		"💡 Escribe \"qué es el RIR\" si necesitas ayuda."

	rirLegend = "• 0 = Al fallo\n• 1 = Una rep más\n• 2-5 = Esa cantidad más"

	saveFailedText = "❌ No pude guardar el entrenamiento. Tus datos siguen aquí.\n\n" +
		"Responde \"no\" para intentar guardarlo de nuevo o \"cancelar\" para descartarlo."

	correctionText = "¿Quieres corregirlos? Escribe:\n" +
		"• \"cambiar peso\", \"cambiar reps\", \"cambiar series\" o \"cambiar rir\"\n" +
		"• O escribe \"cancelar\" para descartar y empezar de nuevo"

	corruptResetText = "⚠️ Lo siento, perdí el hilo de nuestra conversación y no encontré datos para recuperar.\n\n" +
		"Volvamos a empezar. Describe tu entrenamiento, por ejemplo " + exampleStrength + "."

	createDeclinedText = "✅ Cancelado. Puedes intentar con otro nombre.\n\n" +
		"Escribe \"ejercicios\" para ver la lista disponible."

	createAnswerText = "Responde \"sí\" para crear el ejercicio o \"no\" para cancelar."
)

func greetingText(name string) string {
	return fmt.Sprintf("¡Mucho gusto, %s! 👋\n\n%s", name, helpBody())
}

func helpText(name string) string {
	hello := "¡Hola de nuevo! 👋"
	if name != "" {
		hello = fmt.Sprintf("¡Hola de nuevo %s! 👋", name)
	}
	return hello + "\n\n" + helpBody()
}

func helpBody() string {
	var b strings.Builder
	b.WriteString("📝 *CÓMO REGISTRAR:*\n")
	b.WriteString("\n*Fuerza:*\n\"Nombre + Peso + Reps + Series + RIR\"\n")
	b.WriteString("• " + exampleStrength + "\n")
	b.WriteString("• \"Sentadilla 100kg 8 reps 4 series RIR 1\"\n")
	b.WriteString("\n*RIR (Repeticiones en Reserva):*\n" + rirLegend + "\n")
	b.WriteString("\n*Por tiempo:*\n• \"Plancha 60 segundos\"\n")
	b.WriteString("\n*Cardio:*\n• \"Caminadora 30 minutos\"\n• \"Bicicleta 10 km 40 minutos\"\n")
	b.WriteString("\n📋 *COMANDOS:*\n")
	b.WriteString("• \"ejercicios\" - Ver tus ejercicios\n")
	b.WriteString("• \"web\" - Link del dashboard\n")
	b.WriteString("• \"cancelar\" - Cancelar registro actual")
	return b.String()
}

func webText(name, url string) string {
	hello := "¡Hola! 👋"
	if name != "" {
		hello = fmt.Sprintf("¡Hola %s! 👋", name)
	}
	if url == "" {
		return hello + "\n\nEl dashboard web no está disponible por ahora."
	}
	return hello + "\n\n💻 Accede a tu dashboard aquí:\n" + url + "\n\n" +
		"Allí podrás ver tu historial completo y editar o eliminar registros."
}

func verificationText(url string) string {
	msg := "⚠️ *Verificación requerida*\n\nNecesitas verificar tu cuenta antes de registrar entrenamientos."
	if url != "" {
		msg += "\n\nIngresa a " + url + " con el código que recibiste por SMS."
	}
	return msg
}

func exercisesText(custom, builtins []models.Exercise) string {
	var b strings.Builder
	b.WriteString("📋 *TUS EJERCICIOS GUARDADOS*\n\n")
	if len(custom) == 0 {
		b.WriteString("No tienes ejercicios personalizados aún.\n")
	} else {
		writeGroups(&b, custom)
	}
	if len(builtins) > 0 {
		b.WriteString("\n📚 *CATÁLOGO*\n\n")
		writeGroups(&b, builtins)
	}
	b.WriteString("\n💡 Para registrar usa el nombre seguido de los datos.\nEj: " + exampleStrength)
	return b.String()
}

func writeGroups(b *strings.Builder, entries []models.Exercise) {
	for _, g := range catalog.ByMuscleGroup(entries) {
		fmt.Fprintf(b, "*%s:*\n", strings.ToUpper(g.Name))
		for _, e := range g.Exercises {
			fmt.Fprintf(b, "  • %s\n", e.Name)
		}
	}
}

func cancelConfirmText(d *models.Draft) string {
	return "⚠️ ¿Estás seguro de cancelar?\n\n" +
		"Se perderán los datos de: " + d.DisplayName() + "\n\n" +
		"Responde \"sí\" para confirmar\nResponde \"no\" para continuar con el registro"
}

func resumeText(s State, c Context) string {
	msg := "✅ Continuamos con el registro."
	if d := pendingDraft(c); d != nil && s.Collecting() {
		return msg + "\n\n" + prompt(s, d, workout.Validate(d))
	}
	if s == ResolvingExerciseType {
		if rt, ok := c.(ResolvingType); ok {
			return msg + "\n\n" + typeMenuText(rt.Exercise)
		}
	}
	if ce, ok := c.(CreatingExercise); ok {
		if s == CreatingExerciseGroup {
			return msg + "\n\n" + muscleGroupPrompt(ce.Name)
		}
		return msg + "\n\n" + createExercisePrompt(ce.Name)
	}
	return msg
}

func typeMenuText(ex *models.Exercise) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤔 *\"%s\"* puede hacerse de diferentes formas:\n\n", ex.Name)
	for i, t := range ex.AllowedTypes {
		fmt.Fprintf(&b, "%d. %s\n   Ej: \"%s %s\"\n\n", i+1, t.Label(), ex.Name, typeExample(t))
	}
	b.WriteString("Responde con el número de la opción.")
	return b.String()
}

func typeExample(t models.ExerciseType) string {
	switch t {
	case models.StrengthWeighted:
		return "40kg 10 reps 3 series"
	case models.StrengthBodyweight:
		return "15 reps 3 series"
	case models.IsometricTime:
		return "60 segundos"
	case models.CardioTime:
		return "30 minutos"
	case models.CardioDistance:
		return "5 km"
	case models.CardioBoth:
		return "5 km 30 minutos"
	}
	return ""
}

func typeMenuRetryText(ex *models.Exercise) string {
	return fmt.Sprintf("Elige una opción entre 1 y %d.\n\n%s", len(ex.AllowedTypes), typeMenuText(ex))
}

func createExercisePrompt(name string) string {
	return fmt.Sprintf("🆕 No encontré \"%s\" entre tus ejercicios.\n\n¿Quieres crearlo? (sí/no)", name)
}

func muscleGroupPrompt(name string) string {
	return fmt.Sprintf("✨ Perfecto. Vamos a crear \"%s\".\n\n¿Qué grupo muscular trabaja?\n\n%s",
		name, muscleGroupOptions())
}

func invalidMuscleGroupText() string {
	return "❌ Grupo muscular no válido.\n\nElige uno de estos:\n" + muscleGroupOptions()
}

func muscleGroupOptions() string {
	lines := make([]string, len(models.MuscleGroups))
	for i, g := range models.MuscleGroups {
		lines[i] = fmt.Sprintf("%d. %s", i+1, g)
	}
	return strings.Join(lines, "\n")
}

func createdExerciseText(ex *models.Exercise) string {
	return fmt.Sprintf("🆕 Creé el ejercicio \"%s\" (%s).", ex.Name, ex.MuscleGroup)
}

func corruptResumeText(d *models.Draft, s State) string {
	return "⚠️ Detecté un problema técnico, pero puedo continuar con: " + d.DisplayName() + "\n\n" +
		prompt(s, d, workout.Validate(d))
}

func editPrompt(f models.Field) string {
	var q string
	switch f {
	case models.FieldWeight:
		q = "¿Cuántos kg quieres usar?"
	case models.FieldReps:
		q = "¿Cuántas repeticiones?"
	case models.FieldSets:
		q = "¿Cuántas series?"
	default:
		q = "¿Qué RIR? (0-5)"
	}
	return "✏️ " + q + "\n\nDime el nuevo valor y actualizaré los datos."
}

// prompt asks for what s collects, given the validation of d.
func prompt(s State, d *models.Draft, res workout.Result) string {
	head := summary(d)
	switch s {
	case WaitingForWeight:
		return head + "\n\n⚠️ Falta: peso (kg)\n\nEjemplo: \"80kg\"\nO escribe \"sin peso\" si es con tu peso corporal"
	case WaitingForRIR:
		return head + "\n\n¿RIR (0-5)?\n" + rirLegend + "\n\nEjemplo: \"RIR 2\" o \"0\""
	case WaitingForComment:
		return head + "\n\n¿Comentario? Responde \"no\" para guardar sin comentario."
	}
	if len(res.Missing) == 0 {
		return head + "\n\n¿Qué dato quieres corregir?"
	}
	return head + "\n\n⚠️ " + workout.MissingText(res.Missing) + "\n\n" +
		"Ejemplo: \"" + workout.Example(res.Missing) + "\"\nO escribe todos los datos juntos."
}

func violationsText(vs []workout.Violation) string {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = "• " + workout.ViolationText(v)
	}
	return "⚠️ Encontré problemas en los datos:\n" + strings.Join(lines, "\n")
}

func savedText(d *models.Draft) string {
	msg := "✅ *Guardado:* " + summary(d)
	if d.Notes != "" {
		msg += "\n📝 " + d.Notes
	}
	return msg + "\n\n¿Otro ejercicio?"
}

// summary renders the draft the way it will be saved.
func summary(d *models.Draft) string {
	name := d.DisplayName()
	if d.Exercise != nil && d.Exercise.Custom {
		name += " (Personalizado)"
	}
	t := workout.EffectiveType(d)
	switch t {
	case models.StrengthWeighted:
		return "🏋️ " + name + "\n📊 Resumen por set:\n" + strings.Join(setLines(d, true), "\n")
	case models.StrengthBodyweight:
		return "💪 " + name + "\n📊 Resumen por set:\n" + strings.Join(setLines(d, false), "\n")
	}

	var parts []string
	if t.IsTimed() {
		if v, ok := d.Duration.ValueForSet(0); ok {
			parts = append(parts, workout.FormatDuration(v))
		}
	}
	if t.HasDistance() {
		if v, ok := d.Distance.ValueForSet(0); ok {
			parts = append(parts, models.FormatNumber(v)+" km")
		}
	}
	text := "⏱️ " + name
	if len(parts) > 0 {
		text += ": " + strings.Join(parts, " + ")
	}
	if v, ok := d.Calories.ValueForSet(0); ok {
		text += fmt.Sprintf(" (%s cal)", models.FormatNumber(v))
	}
	return text
}

func setLines(d *models.Draft, withWeight bool) []string {
	n := d.TotalSets()
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		reps := "— reps"
		if v, ok := d.Reps.ValueForSet(i); ok {
			reps = models.FormatNumber(v) + " reps"
		}
		line := fmt.Sprintf("• Set %d: %s", i+1, reps)
		if withWeight {
			weight := "—"
			if v, ok := d.Weight.ValueForSet(i); ok {
				weight = models.FormatNumber(v)
			}
			line = fmt.Sprintf("• Set %d: %s kg × %s", i+1, weight, reps)
		}
		if v, ok := d.RIR.ValueForSet(i); ok {
			line += fmt.Sprintf(" (RIR: %s)", models.FormatNumber(v))
		}
		lines[i] = line
	}
	return lines
}
