package learn

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Bank is the ordered question set shown by the quiz. It can be swapped at
// runtime by Reload.
type Bank struct {
	mu        sync.RWMutex
	questions []Question
	logger    *zap.Logger
}

func NewBank(qs []Question, logger *zap.Logger) *Bank {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bank{questions: qs, logger: logger}
}

// LoadBank reads path, falling back to DefaultQuestions when path is empty
// or unusable.
func LoadBank(path string, logger *zap.Logger) *Bank {
	b := NewBank(DefaultQuestions(), logger)
	if path == "" {
		return b
	}
	if err := b.Reload(path); err != nil {
		b.logger.Warn("using default questions", zap.String("path", path), zap.Error(err))
	}
	return b
}

// ParseQuestions decodes a YAML document of the form
//
//	questions:
//	  - id: 1
//	    prompt: ...
//	    options: [...]
//	    correct: 0
func ParseQuestions(data []byte) ([]Question, error) {
	var doc struct {
		Questions []Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if err := validateAll(doc.Questions); err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

// Reload replaces the questions with those in path. On error the current
// set is kept.
func (b *Bank) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	qs, err := ParseQuestions(data)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.questions = qs
	b.mu.Unlock()
	b.logger.Info("questions loaded", zap.String("path", path), zap.Int("count", len(qs)))
	return nil
}

// Questions returns a copy of the current set.
func (b *Bank) Questions() []Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.questions)
}

// At returns the i-th question.
func (b *Bank) At(i int) (Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[i], true
}
