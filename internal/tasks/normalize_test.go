package tasks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"backlog", StatusBacklog},
		{"  Pendiente ", StatusBacklog},
		{"In Progress", StatusInProgress},
		{"in   progress", StatusInProgress},
		{"IN-PROGRESS", StatusInProgress},
		{"progreso", StatusInProgress},
		{"Review", StatusReview},
		{"revisión", StatusReview},
		{"done", StatusDone},
		{"Hecho", StatusDone},
		{"completed", StatusDone},
		{"finished", StatusDone},
		{"terminado", StatusDone},
		{"Historico", StatusHistorico},
		{"HISTÓRICO", StatusHistorico},
		{"archived", StatusHistorico},
		{"EN PROGRESO", StatusBacklog},
		{"whatever", StatusBacklog},
		{"", StatusBacklog},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.in))
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"high", PriorityHigh},
		{" HIGH ", PriorityHigh},
		{"alta", PriorityHigh},
		{"Low", PriorityLow},
		{"baja", PriorityLow},
		{"medium", PriorityMedium},
		{"urgent", PriorityMedium},
		{"", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePriority(tt.in))
		})
	}
}

func TestIsDoneStatus(t *testing.T) {
	done := []string{"Done", "done", " HECHO ", "Hecho ✅", "done (ok)", "Done!", "completado", "Finished.",
		"Done-", "done-ok", "Hecho-✅", "-done-", "DONE_2"}
	for _, s := range done {
		assert.True(t, IsDoneStatus(s), s)
	}

	notDone := []string{"", "   ", "Historico", "Backlog", "In Progress", "Review", "undone", "archived", "pending",
		"in-progress", "not-doneish", "Historico-✅"}
	for _, s := range notDone {
		assert.False(t, IsDoneStatus(s), s)
	}
}

func TestNormalizeIsCanonical(t *testing.T) {
	canonical := map[Status]bool{
		StatusBacklog: true, StatusInProgress: true, StatusReview: true,
		StatusDone: true, StatusHistorico: true,
	}
	priorities := map[Priority]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true}

	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "input")
		if !canonical[NormalizeStatus(s)] {
			rt.Fatalf("NormalizeStatus(%q) = %q is not canonical", s, NormalizeStatus(s))
		}
		if !priorities[NormalizePriority(s)] {
			rt.Fatalf("NormalizePriority(%q) = %q is not canonical", s, NormalizePriority(s))
		}
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "input")
		once := NormalizeStatus(s)
		if twice := NormalizeStatus(string(once)); twice != once {
			rt.Fatalf("NormalizeStatus(%q) = %q, then %q", s, once, twice)
		}
		p := NormalizePriority(s)
		if again := NormalizePriority(string(p)); again != p {
			rt.Fatalf("NormalizePriority(%q) = %q, then %q", s, p, again)
		}
	})
}

func TestNormalizeIgnoresCaseAndSpacing(t *testing.T) {
	var keys []string
	for _, spellings := range statusTable {
		keys = append(keys, spellings...)
	}

	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.SampledFrom(keys).Draw(rt, "key")
		pad := strings.Repeat(" ", rapid.IntRange(0, 3).Draw(rt, "pad"))
		upper := rapid.Bool().Draw(rt, "upper")

		in := pad + key + pad
		if upper {
			in = strings.ToUpper(in)
		}
		if got, want := NormalizeStatus(in), NormalizeStatus(key); got != want {
			rt.Fatalf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	})
}
