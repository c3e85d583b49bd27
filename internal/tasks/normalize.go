package tasks

import (
	"strings"
	"unicode"
)

// statusTable lists the accepted spellings of every status, English and
// Spanish. Keys are compared lowercased with whitespace collapsed.
var statusTable = map[Status][]string{
	StatusBacklog:    {"backlog", "pendiente"},
	StatusInProgress: {"in progress", "in-progress", "progress", "progreso", "en curso"},
	StatusReview:     {"review", "revisión", "revision"},
	StatusDone: {
		"done", "completed", "complete", "finished",
		"hecho", "finalizado", "terminado", "completo", "completado",
	},
	StatusHistorico: {"historico", "histórico", "almacen", "almacén", "archive", "archived"},
}

var priorityTable = map[Priority][]string{
	PriorityLow:    {"low", "baja"},
	PriorityMedium: {"medium", "media"},
	PriorityHigh:   {"high", "alta"},
}

var (
	statusLookup   = buildLookup(statusTable)
	priorityLookup = buildLookup(priorityTable)
)

func buildLookup[T ~string](table map[T][]string) map[string]T {
	out := make(map[string]T)
	for canonical, keys := range table {
		for _, k := range keys {
			out[normalizeKey(k)] = canonical
		}
	}
	return out
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeStatus maps free text to a canonical status. Unknown input is
// Backlog.
func NormalizeStatus(s string) Status {
	if st, ok := statusLookup[normalizeKey(s)]; ok {
		return st
	}
	return StatusBacklog
}

// NormalizePriority maps free text to a canonical priority. Unknown input is
// Medium.
func NormalizePriority(p string) Priority {
	if pr, ok := priorityLookup[normalizeKey(p)]; ok {
		return pr
	}
	return PriorityMedium
}

// IsDoneStatus reports whether a stored status means done. Besides the
// table it accepts decorated values such as "Hecho ✅", "done-ok" or
// "done (ok)" by looking at every word of the value. Any non-letter rune
// separates words.
func IsDoneStatus(s string) bool {
	key := normalizeKey(s)
	if key == "" {
		return false
	}
	if st, ok := statusLookup[key]; ok {
		return st == StatusDone
	}

	words := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if statusLookup[w] == StatusDone {
			return true
		}
	}
	return false
}
