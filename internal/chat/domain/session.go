package domain

import (
	"errors"
	"time"

	sharedinfra "bizit/internal/shared/infrastructure"
)

// ErrEmptyMessage le message envoyé est vide
var ErrEmptyMessage = errors.New("message is required")

// Session conversation en cours d'un commerçant
type Session struct {
	ID        string
	UserID    string
	System    string
	History   []sharedinfra.Turn
	StartedAt time.Time
}

// Append ajoute un échange et ne garde que les maxTurns derniers échanges
func (s *Session) Append(question, answer string, maxTurns int) {
	s.History = append(s.History,
		sharedinfra.Turn{Role: sharedinfra.RoleUser, Text: question},
		sharedinfra.Turn{Role: sharedinfra.RoleModel, Text: answer},
	)
	if maxTurns > 0 && len(s.History) > maxTurns*2 {
		s.History = append([]sharedinfra.Turn(nil), s.History[len(s.History)-maxTurns*2:]...)
	}
}

// Turns retourne l'historique suivi de la nouvelle question
func (s *Session) Turns(question string) []sharedinfra.Turn {
	turns := make([]sharedinfra.Turn, 0, len(s.History)+1)
	turns = append(turns, s.History...)
	return append(turns, sharedinfra.Turn{Role: sharedinfra.RoleUser, Text: question})
}
