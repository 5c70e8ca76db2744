package conversation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/claude/repbot/internal/catalog"
)

// Phrases are the locale word lists the state machine recognizes. Lists
// left empty fall back to DefaultPhrases. Entries are compared after
// lower-casing and stripping accents.
//
// Yes, No, Cancel, Help, Exercises, Web, Done and NoComment match the whole
// message. NoWeight and Unsure match anywhere in it. Restart entries are
// regular expressions.
type Phrases struct {
	Yes       []string
	No        []string
	Cancel    []string
	Help      []string
	Exercises []string
	Web       []string
	Done      []string
	NoComment []string
	NoWeight  []string
	Unsure    []string
	Restart   []string
}

// DefaultPhrases returns the built-in Spanish tables.
func DefaultPhrases() Phrases {
	return Phrases{
		Yes:       []string{"si", "s", "yes", "ok", "okay", "claro", "dale", "sip", "vale", "correcto", "confirmo"},
		No:        []string{"no", "n", "nop", "nope", "negativo"},
		Cancel:    []string{"cancelar", "cancel", "borrar", "eliminar", "borra", "parar", "detener"},
		Help:      []string{"hola", "ayuda", "help", "menu", "comandos", "info"},
		Exercises: []string{"ejercicios", "lista", "catalogo", "mis ejercicios"},
		Web:       []string{"web", "dashboard", "link", "enlace", "url"},
		Done:      []string{"no", "termine", "listo", "ya", "eso es todo", "nada mas", "fin", "ya termine", "terminado"},
		NoComment: []string{"no", "n", "nada", "ninguno", "sin comentarios", "sin comentario", "no gracias", "skip", "paso"},
		NoWeight: []string{"sin peso", "sin kg", "mi peso", "mi propio peso", "peso corporal", "solo reps",
			"sin carga", "sin mancuernas"},
		Unsure: []string{"mas o menos", "aprox", "no estoy seguro", "no estoy segura", "quizas", "tal vez",
			"no se", "no lo se", "ni idea"},
		Restart: []string{
			`nuevo\s+(registro|ejercicio|entrenamiento)`,
			`iniciar\s+(nuevo|otro)`,
			`empezar\s+(nuevo|otro|de\s+nuevo)`,
			`quiero\s+(hacer|registrar)\s+(otro|nuevo)`,
			`^nuevo$`,
			`^otro$`,
			`^reiniciar$`,
		},
	}
}

// withDefaults fills empty lists from DefaultPhrases.
func (p Phrases) withDefaults() Phrases {
	d := DefaultPhrases()
	pick := func(v, def []string) []string {
		if len(v) == 0 {
			return def
		}
		return v
	}
	return Phrases{
		Yes:       pick(p.Yes, d.Yes),
		No:        pick(p.No, d.No),
		Cancel:    pick(p.Cancel, d.Cancel),
		Help:      pick(p.Help, d.Help),
		Exercises: pick(p.Exercises, d.Exercises),
		Web:       pick(p.Web, d.Web),
		Done:      pick(p.Done, d.Done),
		NoComment: pick(p.NoComment, d.NoComment),
		NoWeight:  pick(p.NoWeight, d.NoWeight),
		Unsure:    pick(p.Unsure, d.Unsure),
		Restart:   pick(p.Restart, d.Restart),
	}
}

// wordSet matches a whole normalized message.
type wordSet map[string]bool

func newWordSet(words []string) wordSet {
	s := wordSet{}
	for _, w := range words {
		if n := normalize(w); n != "" {
			s[n] = true
		}
	}
	return s
}

func (s wordSet) has(normalized string) bool {
	return s[normalized]
}

// phraseList matches a phrase on word boundaries anywhere in a message.
type phraseList []*regexp.Regexp

func newPhraseList(phrases []string) phraseList {
	var l phraseList
	for _, p := range phrases {
		if n := normalize(p); n != "" {
			l = append(l, regexp.MustCompile(`\b`+regexp.QuoteMeta(n)+`\b`))
		}
	}
	return l
}

func (l phraseList) in(normalized string) bool {
	for _, re := range l {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// phrases is the compiled form of Phrases.
type phrases struct {
	yes, no, cancel      wordSet
	help, exercises, web wordSet
	done, noComment      wordSet
	noWeight, unsure     phraseList
	restart              []*regexp.Regexp
}

func (p Phrases) compile() (*phrases, error) {
	p = p.withDefaults()
	c := &phrases{
		yes:       newWordSet(p.Yes),
		no:        newWordSet(p.No),
		cancel:    newWordSet(p.Cancel),
		help:      newWordSet(p.Help),
		exercises: newWordSet(p.Exercises),
		web:       newWordSet(p.Web),
		done:      newWordSet(p.Done),
		noComment: newWordSet(p.NoComment),
		noWeight:  newPhraseList(p.NoWeight),
		unsure:    newPhraseList(p.Unsure),
	}
	for _, expr := range p.Restart {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling restart phrase %q: %w", expr, err)
		}
		c.restart = append(c.restart, re)
	}
	return c, nil
}

func (p *phrases) isRestart(normalized string) bool {
	for _, re := range p.restart {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

var (
	withWeightRe = regexp.MustCompile(`\bcon\b|\d\s*(kg|kilos?|lbs?|libras?)\b`)
	edgePunct    = " \t\r\n!?.,;:¡¿\"'"
)

// isNoWeight reports a "without weight" reply that does not also mention a load.
func (p *phrases) isNoWeight(normalized string) bool {
	return p.noWeight.in(normalized) && !withWeightRe.MatchString(normalized)
}

// normalize folds case and accents, collapses whitespace and trims
// surrounding punctuation.
func normalize(s string) string {
	return strings.Trim(strings.Join(strings.Fields(catalog.Fold(s)), " "), edgePunct)
}
