package learn

import "sync"

// Progress keeps one Attempt per user in memory.
type Progress struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

func NewProgress() *Progress {
	return &Progress{attempts: map[string]Attempt{}}
}

// Get returns a copy of the user's attempt, or a fresh one.
func (p *Progress) Get(user string) Attempt {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.attempts[user]
	if !ok {
		return NewAttempt()
	}
	return a.clone()
}

// Update applies fn to the user's attempt and stores the result unless fn
// fails.
func (p *Progress) Update(user string, fn func(*Attempt) error) (Attempt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.attempts[user]
	if !ok {
		a = NewAttempt()
	} else {
		a = a.clone()
	}
	if err := fn(&a); err != nil {
		return Attempt{}, err
	}
	p.attempts[user] = a
	return a.clone(), nil
}

func (p *Progress) Reset(user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, user)
}
