package learn

import "fmt"

// NoSelection marks an Attempt with no option picked for the current
// question.
const NoSelection = -1

// Attempt is one user's progress through the quiz.
type Attempt struct {
	Index    int          `json:"index"`
	Selected int          `json:"selected"`
	Answers  map[int]bool `json:"answers"`
	Finished bool         `json:"finished"`
}

func NewAttempt() Attempt {
	return Attempt{Selected: NoSelection, Answers: map[int]bool{}}
}

// Select records whether option is the correct answer to q. Picking again
// overwrites the earlier choice.
func (a *Attempt) Select(q Question, option int) error {
	if a.Finished {
		return fmt.Errorf("quiz already finished")
	}
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("option %d out of range", option)
	}
	if a.Answers == nil {
		a.Answers = map[int]bool{}
	}
	a.Selected = option
	a.Answers[q.ID] = option == q.Correct
	return nil
}

// Next moves to the following question and clears the selection. On the
// last of total questions it finishes the attempt instead.
func (a *Attempt) Next(total int) {
	if a.Finished {
		return
	}
	if a.Index >= total-1 {
		a.Finished = true
		return
	}
	a.Index++
	a.Selected = NoSelection
}

// Score counts correct answers among qs and returns it with len(qs).
// Answers to questions no longer in qs are ignored.
func (a Attempt) Score(qs []Question) (correct, total int) {
	for _, q := range qs {
		if a.Answers[q.ID] {
			correct++
		}
	}
	return correct, len(qs)
}

func (a Attempt) clone() Attempt {
	out := a
	out.Answers = make(map[int]bool, len(a.Answers))
	for k, v := range a.Answers {
		out.Answers[k] = v
	}
	return out
}
