package heritage

import (
	"sort"
	"strings"
)

// PassPercentage is the minimum trivia score that earns the site badge.
const PassPercentage = 60

// FinalScore is the tally of a finished trivia session.
type FinalScore struct {
	CorrectAnswers  int
	TotalQuestions  int
	ScorePercentage float64
}

func NewFinalScore(correct, total int) FinalScore {
	fs := FinalScore{CorrectAnswers: correct, TotalQuestions: total}
	if total > 0 {
		fs.ScorePercentage = float64(correct) * 100 / float64(total)
	}
	return fs
}

// Passed compares in integers so 3 of 5 lands exactly on the threshold.
func (f FinalScore) Passed() bool {
	return f.TotalQuestions > 0 && f.CorrectAnswers*100 >= PassPercentage*f.TotalQuestions
}

// NormalizeOption upper-cases and trims an answer letter. ok is false for
// anything outside A-D.
func NormalizeOption(opt string) (string, bool) {
	o := strings.ToUpper(strings.TrimSpace(opt))
	switch o {
	case "A", "B", "C", "D":
		return o, true
	}
	return "", false
}

// Judge decides correctness from the stored question only.
func Judge(q TriviaQuestion, selected string) bool {
	want, ok := NormalizeOption(q.CorrectOption)
	if !ok {
		return false
	}
	got, ok := NormalizeOption(selected)
	return ok && got == want
}

// CurrentBuilding returns the first unvisited building in ascending visit
// order, or nil when every building has been visited.
func CurrentBuilding(progress []BuildingProgress) *Building {
	sorted := make([]BuildingProgress, len(progress))
	copy(sorted, progress)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VisitOrder < sorted[j].VisitOrder
	})
	for _, p := range sorted {
		if !p.Visited {
			b := p.Building
			return &b
		}
	}
	return nil
}
