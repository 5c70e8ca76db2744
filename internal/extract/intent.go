package extract

import (
	"regexp"
	"strings"
)

// commandWords are single-word messages with a fixed meaning.
var commandWords = map[string]Intent{
	"hola": IntentHelp, "ayuda": IntentHelp, "help": IntentHelp, "menu": IntentHelp,
	"comandos": IntentHelp, "info": IntentHelp,
	"ejercicios": IntentExercises, "lista": IntentExercises, "catalogo": IntentExercises,
	"web": IntentWeb, "dashboard": IntentWeb, "link": IntentWeb, "enlace": IntentWeb, "url": IntentWeb,
	"cancelar": IntentCancel, "cancel": IntentCancel, "borrar": IntentCancel, "eliminar": IntentCancel,
	"borra": IntentCancel, "parar": IntentCancel, "detener": IntentCancel,
}

var intentRules = []struct {
	re         *regexp.Regexp
	intent     Intent
	confidence float64
}{
	{regexp.MustCompile(`\bno\s+quiero\s+(?:continuar|seguir)\b|\bolvida(?:lo)?\b|\bdejalo\b|\bya\s+no\s+quiero\b|\bnever\s*mind\b|\bforget\s+it\b`), IntentCancel, 0.8},
	{regexp.MustCompile(`\bcomo\s+funciona|\bque\s+puedo\s+hacer\b|\bcomo\s+(?:te\s+)?uso\b|\bnecesito\s+ayuda\b`), IntentHelp, 0.8},
	{regexp.MustCompile(`\b(?:que|cuales)\s+ejercicios\b|\blista\s+de\s+ejercicios\b|\bver\s+(?:los\s+)?ejercicios\b`), IntentExercises, 0.8},
	{regexp.MustCompile(`\bver\s+(?:mi\s+)?(?:progreso|historial|dashboard)\b|\bpagina\s+web\b`), IntentWeb, 0.8},
	{regexp.MustCompile(`\b(?:nuevo|otro)\s+ejercicio\b|\bquiero\s+(?:registrar|anotar)\b|\bacabo\s+de\s+hacer\b`), IntentCreateWorkout, 0.9},
}

// classify runs the rule tables over folded text.
func classify(folded, state string) Classification {
	trimmed := strings.Trim(folded, " \t!?.¡¿")
	if intent, ok := commandWords[trimmed]; ok {
		return Classification{Intent: intent, Confidence: 1}
	}
	for _, r := range intentRules {
		if r.re.MatchString(folded) {
			return Classification{Intent: r.intent, Confidence: r.confidence}
		}
	}
	if digitRe.MatchString(folded) && hasPendingDraft(state) {
		return Classification{Intent: IntentContinueWorkout, Confidence: 0.7}
	}
	return Classification{Intent: IntentUnknown}
}

// hasPendingDraft reports whether state is one that carries a draft.
func hasPendingDraft(state string) bool {
	switch state {
	case "", "IDLE", "NEW_USER", "PENDING_VERIFICATION", "CONFIRM_SAVE":
		return false
	}
	return true
}
