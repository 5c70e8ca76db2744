package catalog

import (
	"strings"

	"github.com/claude/repbot/internal/models"
)

// MinScore is the lowest normalized score a fuzzy candidate needs.
const MinScore = 0.5

// Score rates how well query matches target by word overlap: each query
// word scores 1.0 for an equal target word, 0.5 when one contains the
// other, and the sum is divided by the number of query words.
func Score(query, target []string) float64 {
	if len(query) == 0 || len(target) == 0 {
		return 0
	}
	var total float64
	for _, q := range query {
		best := 0.0
		for _, w := range target {
			if q == w {
				best = 1
				break
			}
			if strings.Contains(w, q) || strings.Contains(q, w) {
				best = 0.5
			}
		}
		total += best
	}
	return total / float64(len(query))
}

// entryScore is the best score over the entry's name and aliases.
func entryScore(query []string, e *models.Exercise) float64 {
	best := Score(query, Words(e.Name))
	for _, a := range e.Aliases {
		if s := Score(query, Words(a)); s > best {
			best = s
		}
	}
	return best
}

// exactMatch reports whether name equals the entry's name or an alias,
// ignoring case and accents.
func exactMatch(name string, e *models.Exercise) bool {
	if Fold(e.Name) == name {
		return true
	}
	for _, a := range e.Aliases {
		if Fold(a) == name {
			return true
		}
	}
	return false
}

// Match resolves name against entries. An exact name or alias match wins
// immediately; otherwise the highest fuzzy score at or above MinScore is
// returned, ties going to the earliest entry.
func Match(name string, entries []models.Exercise) (*models.Exercise, float64, bool) {
	folded := Fold(name)
	if folded == "" {
		return nil, 0, false
	}
	for i := range entries {
		if exactMatch(folded, &entries[i]) {
			return &entries[i], 1, true
		}
	}

	query := Words(name)
	if len(query) == 0 {
		return nil, 0, false
	}
	bestIdx, bestScore := -1, 0.0
	for i := range entries {
		if s := entryScore(query, &entries[i]); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestIdx < 0 || bestScore < MinScore {
		return nil, bestScore, false
	}
	return &entries[bestIdx], bestScore, true
}
