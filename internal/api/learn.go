package api

import (
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/learn"
)

const keyVideoIndex = "learn.video"

func (s *Server) viewOf(a learn.Attempt) quizView {
	qs := s.bank.Questions()
	v := quizView{Index: a.Index, Total: len(qs), Selected: a.Selected}
	if a.Finished || a.Index >= len(qs) {
		v.Finished = true
		v.Correct, _ = a.Score(qs)
		return v
	}
	q := qs[a.Index]
	v.Question = &q
	return v
}

func (s *Server) quizFor(email string) quizView {
	return s.viewOf(s.progress.Get(email))
}

func (s *Server) answer(email string, option int) (quizView, error) {
	a, err := s.progress.Update(email, func(a *learn.Attempt) error {
		q, ok := s.bank.At(a.Index)
		if !ok {
			return errBadOption
		}
		if err := a.Select(q, option); err != nil {
			return errBadOption
		}
		return nil
	})
	if err != nil {
		return quizView{}, err
	}
	return s.viewOf(a), nil
}

func (s *Server) next(email string) quizView {
	a, _ := s.progress.Update(email, func(a *learn.Attempt) error {
		a.Next(s.bank.Len())
		return nil
	})
	return s.viewOf(a)
}

func (s *Server) videoIndex(sess auth.Session) int {
	v, _ := sess.Get(keyVideoIndex)
	i, _ := v.(int)
	return s.carousel.Index(i)
}
