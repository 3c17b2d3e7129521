package engine

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoAnswer indicates a confirmer could not obtain an answer.
var ErrNoAnswer = errors.New("no answer available")

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(question string) (bool, error)

// Confirm calls f(question).
func (f ConfirmFunc) Confirm(question string) (bool, error) {
	return f(question)
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// ScriptedConfirmer answers questions from a fixed list of replies, in order.
// It returns ErrNoAnswer once the replies are exhausted.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	answers []string
	asked   []string
}

// NewScriptedConfirmer creates a ScriptedConfirmer with the given replies.
func NewScriptedConfirmer(answers ...string) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers}
}

// Confirm consumes the next scripted reply.
func (s *ScriptedConfirmer) Confirm(question string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asked = append(s.asked, question)
	if len(s.answers) == 0 {
		return false, ErrNoAnswer
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return IsYes(answer), nil
}

// Asked returns the questions asked so far.
func (s *ScriptedConfirmer) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}
